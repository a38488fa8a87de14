package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/warera-trades/internal/testutil"
	"github.com/Sternrassler/warera-trades/internal/transactions"
	"github.com/Sternrassler/warera-trades/pkg/client"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
)

// countingLookup records calls and peak concurrency.
type countingLookup struct {
	mu      sync.Mutex
	calls   map[string]int
	names   map[string]string
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
}

func newCountingLookup(names map[string]string) *countingLookup {
	return &countingLookup{calls: make(map[string]int), names: names}
}

func (l *countingLookup) lookup(ctx context.Context, id string) (string, error) {
	n := l.active.Add(1)
	defer l.active.Add(-1)
	for {
		old := l.maxSeen.Load()
		if n <= old || l.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}

	l.mu.Lock()
	l.calls[id]++
	name, ok := l.names[id]
	l.mu.Unlock()

	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if !ok {
		return "", fmt.Errorf("unknown id %s", id)
	}
	return name, nil
}

func (l *countingLookup) callsFor(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[id]
}

func TestResolve(t *testing.T) {
	ok := func(context.Context, string) (string, error) { return "alice", nil }
	empty := func(context.Context, string) (string, error) { return " ", nil }
	failing := func(context.Context, string) (string, error) { return "", errors.New("boom") }

	if r := Resolve(context.Background(), ok, "u1"); r.Outcome != Resolved || r.Name != "alice" || r.Err != nil {
		t.Errorf("ok lookup = %+v", r)
	}

	r := Resolve(context.Background(), empty, "u1")
	if r.Outcome != Fallback || r.Name != "u1" || !errors.Is(r.Err, ErrEmptyName) {
		t.Errorf("empty lookup = %+v", r)
	}

	r = Resolve(context.Background(), failing, "u2")
	if r.Outcome != Fallback || r.Name != "u2" || r.Err == nil {
		t.Errorf("failing lookup = %+v", r)
	}
}

func TestOutcome_String(t *testing.T) {
	if Resolved.String() != "resolved" || Fallback.String() != "fallback" {
		t.Errorf("unexpected outcome names %s/%s", Resolved, Fallback)
	}
}

func TestCache_StoreOnce(t *testing.T) {
	c := NewCache()
	if !c.Store(Result{ID: "a", Name: "first"}) {
		t.Fatal("first store rejected")
	}
	if c.Store(Result{ID: "a", Name: "second"}) {
		t.Error("second store accepted")
	}
	if name, _ := c.Lookup("a"); name != "first" {
		t.Errorf("name = %q, want first", name)
	}
	if _, ok := c.Lookup("missing"); ok {
		t.Error("absent key reported present")
	}
}

func TestCache_Missing(t *testing.T) {
	c := NewCache()
	c.Store(Result{ID: "b", Name: "B"})

	got := c.Missing([]string{"a", "", "b", "c", "a"})
	if fmt.Sprint(got) != "[a c]" {
		t.Errorf("Missing() = %v, want [a c]", got)
	}
}

func TestPool_EveryIDGetsAnEntry(t *testing.T) {
	l := newCountingLookup(map[string]string{"u1": "alice", "u3": "carol"})
	cache := NewCache()
	p := NewPool("user", l.lookup, 10)

	p.ResolveInto(context.Background(), cache, []string{"u1", "u2", "u3", "", "u1"})

	if cache.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cache.Len())
	}
	want := map[string]string{"u1": "alice", "u2": "u2", "u3": "carol"}
	for id, name := range want {
		if got, _ := cache.Lookup(id); got != name {
			t.Errorf("Lookup(%s) = %q, want %q", id, got, name)
		}
	}
	if !cache.IsFallback("u2") || cache.IsFallback("u1") {
		t.Error("fallback flags wrong")
	}
	if n := l.callsFor("u1"); n != 1 {
		t.Errorf("u1 looked up %d times, want 1", n)
	}
}

func TestPool_SkipsCachedIDs(t *testing.T) {
	l := newCountingLookup(map[string]string{"u1": "alice"})
	cache := NewCache()
	cache.Store(Result{ID: "u1", Name: "cached"})

	results := NewPool("user", l.lookup, 10).ResolveInto(context.Background(), cache, []string{"u1"})

	if results != nil {
		t.Errorf("results = %v, want none", results)
	}
	if l.callsFor("u1") != 0 {
		t.Error("cached id was looked up again")
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	names := make(map[string]string)
	ids := make([]string, 0, 40)
	for i := range 40 {
		id := fmt.Sprintf("u%d", i)
		names[id] = "name-" + id
		ids = append(ids, id)
	}
	l := newCountingLookup(names)
	l.delay = 20 * time.Millisecond

	NewPool("user", l.lookup, 10).ResolveInto(context.Background(), NewCache(), ids)

	if peak := l.maxSeen.Load(); peak > 10 {
		t.Errorf("peak concurrency = %d, want <= 10", peak)
	}
	if peak := l.maxSeen.Load(); peak < 2 {
		t.Errorf("peak concurrency = %d, lookups did not overlap", peak)
	}
}

func TestPool_Metrics(t *testing.T) {
	l := newCountingLookup(map[string]string{"c1": "Chile"})
	resolved := prom.ToFloat64(lookupsTotal.WithLabelValues("country", "resolved"))
	fallback := prom.ToFloat64(lookupsTotal.WithLabelValues("country", "fallback"))

	NewPool("country", l.lookup, 2).ResolveInto(context.Background(), NewCache(), []string{"c1", "c2"})

	if d := prom.ToFloat64(lookupsTotal.WithLabelValues("country", "resolved")) - resolved; d != 1 {
		t.Errorf("resolved delta = %v, want 1", d)
	}
	if d := prom.ToFloat64(lookupsTotal.WithLabelValues("country", "fallback")) - fallback; d != 1 {
		t.Errorf("fallback delta = %v, want 1", d)
	}
}

func TestResolver_ResolveUserIdempotent(t *testing.T) {
	l := newCountingLookup(map[string]string{"u1": "alice"})
	r := New(l.lookup, l.lookup, 10)

	first := r.ResolveUser(context.Background(), "u1")
	second := r.ResolveUser(context.Background(), "u1")

	if first != "alice" || second != "alice" {
		t.Errorf("names = %q/%q", first, second)
	}
	if n := l.callsFor("u1"); n != 1 {
		t.Errorf("lookups = %d, want 1", n)
	}
	if got := r.ResolveUser(context.Background(), ""); got != "" {
		t.Errorf("empty id resolved to %q", got)
	}
}

func TestResolver_FallbackIsStable(t *testing.T) {
	l := newCountingLookup(nil)
	r := New(l.lookup, l.lookup, 10)

	if got := r.ResolveCountry(context.Background(), "c9"); got != "c9" {
		t.Errorf("fallback = %q, want c9", got)
	}
	l.names = map[string]string{"c9": "Peru"}
	if got := r.ResolveCountry(context.Background(), "c9"); got != "c9" {
		t.Errorf("cached fallback changed to %q", got)
	}
}

func TestResolver_ResolveCollection(t *testing.T) {
	users := newCountingLookup(map[string]string{"A": "alice", "B": "bob"})
	countries := newCountingLookup(map[string]string{"X": "Chile"})
	r := New(users.lookup, countries.lookup, 10)

	c := transactions.Collection{
		{SellerID: "A", BuyerID: "B", SellerCountryID: "X", BuyerCountryID: "Y"},
		{SellerID: "B", BuyerID: "A", SellerCountryID: "X", BuyerCountryID: "X"},
	}
	r.ResolveCollection(context.Background(), c)

	if r.Users().Len() != 2 || r.Countries().Len() != 2 {
		t.Fatalf("cache sizes = %d/%d, want 2/2", r.Users().Len(), r.Countries().Len())
	}
	if name, _ := r.Countries().Lookup("Y"); name != "Y" {
		t.Errorf("Y = %q, want fallback Y", name)
	}
	for _, id := range []string{"A", "B"} {
		if users.callsFor(id) != 1 {
			t.Errorf("user %s looked up %d times", id, users.callsFor(id))
		}
	}
}

func TestLookups_AgainstAPI(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	api.SetUser("u1", "alice")
	api.SetCountry("c1", "Chile")
	api.FailLookup("u2", http.StatusInternalServerError)

	c, err := client.New(client.Config{BaseURL: api.URL()})
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	r := NewFromQuerier(c, 4)
	ctx := context.Background()

	if got := r.ResolveUser(ctx, "u1"); got != "alice" {
		t.Errorf("u1 = %q", got)
	}
	if got := r.ResolveUser(ctx, "u2"); got != "u2" {
		t.Errorf("u2 = %q, want fallback", got)
	}
	if got := r.ResolveCountry(ctx, "c1"); got != "Chile" {
		t.Errorf("c1 = %q", got)
	}
	if got := r.ResolveCountry(ctx, "c404"); got != "c404" {
		t.Errorf("c404 = %q, want fallback", got)
	}

	res, _ := r.Users().Get("u2")
	var apiErr *client.APIError
	if !errors.As(res.Err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("u2 error = %v", res.Err)
	}
	if api.CountID(testutil.ProcUser, "u1") != 1 {
		t.Errorf("u1 requested %d times", api.CountID(testutil.ProcUser, "u1"))
	}
}
