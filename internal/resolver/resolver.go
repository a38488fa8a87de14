package resolver

import (
	"context"
	"sync"

	"github.com/Sternrassler/warera-trades/internal/transactions"
)

// Resolver owns the user and country name caches of one run.
type Resolver struct {
	users     *Cache
	countries *Cache

	userPool    *Pool
	countryPool *Pool
}

// New creates a resolver with empty caches.
func New(userLookup, countryLookup Lookup, workers int) *Resolver {
	return &Resolver{
		users:       NewCache(),
		countries:   NewCache(),
		userPool:    NewPool("user", userLookup, workers),
		countryPool: NewPool("country", countryLookup, workers),
	}
}

// NewFromQuerier wires the API lookups.
func NewFromQuerier(q Querier, workers int) *Resolver {
	return New(UserLookup(q), CountryLookup(q), workers)
}

// Users returns the user name cache.
func (r *Resolver) Users() *Cache { return r.users }

// Countries returns the country name cache.
func (r *Resolver) Countries() *Cache { return r.countries }

// ResolveUser returns the name for a user ID, looking it up at most once.
func (r *Resolver) ResolveUser(ctx context.Context, id string) string {
	return resolveOne(ctx, r.userPool, r.users, id)
}

// ResolveCountry returns the name for a country ID, looking it up at most once.
func (r *Resolver) ResolveCountry(ctx context.Context, id string) string {
	return resolveOne(ctx, r.countryPool, r.countries, id)
}

func resolveOne(ctx context.Context, p *Pool, c *Cache, id string) string {
	if id == "" {
		return ""
	}
	if name, ok := c.Lookup(id); ok {
		return name
	}
	p.ResolveInto(ctx, c, []string{id})
	name, _ := c.Lookup(id)
	return name
}

// ResolveCollection resolves every user and country ID in c. The two kinds
// are resolved concurrently, each through its own bounded pool.
func (r *Resolver) ResolveCollection(ctx context.Context, c transactions.Collection) {
	userIDs := transactions.UserIDs(c)
	countryIDs := transactions.CountryIDs(c)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.userPool.ResolveInto(ctx, r.users, userIDs)
	}()
	go func() {
		defer wg.Done()
		r.countryPool.ResolveInto(ctx, r.countries, countryIDs)
	}()
	wg.Wait()
}
