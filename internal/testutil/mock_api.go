// Package testutil provides an in-process mock of the warera tRPC API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Procedure names served by the mock.
const (
	ProcTransactions = "transaction.getPaginatedTransactions"
	ProcUser         = "user.getUserLite"
	ProcCountry      = "country.getCountryById"
)

// TransactionPage is one scripted page of the transactions procedure.
type TransactionPage struct {
	Items      []map[string]any
	NextCursor string

	// Status, when non-zero and not 200, is returned instead of the page.
	Status int

	// RawBody, when set, is written verbatim instead of the encoded page.
	RawBody string
}

// MockAPI is a configurable tRPC server for tests.
type MockAPI struct {
	server *httptest.Server

	mu        sync.Mutex
	pages     map[string]TransactionPage // keyed by cursor, "" for the first page
	users     map[string]string
	countries map[string]string
	failing   map[string]int // id -> status for lookups
	counts    map[string]int // procedure -> requests
	idCounts  map[string]int // procedure:id -> requests
	inputs    []map[string]any
}

// NewMockAPI starts a mock server. Callers must Close it.
func NewMockAPI() *MockAPI {
	m := &MockAPI{
		pages:     make(map[string]TransactionPage),
		users:     make(map[string]string),
		countries: make(map[string]string),
		failing:   make(map[string]int),
		counts:    make(map[string]int),
		idCounts:  make(map[string]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL is the tRPC base URL of the mock.
func (m *MockAPI) URL() string {
	return m.server.URL + "/trpc"
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetPage scripts the page returned for cursor.
func (m *MockAPI) SetPage(cursor string, page TransactionPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[cursor] = page
}

// SetUser makes user.getUserLite return name for id.
func (m *MockAPI) SetUser(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = name
}

// SetCountry makes country.getCountryById return name for id.
func (m *MockAPI) SetCountry(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countries[id] = name
}

// FailLookup makes any lookup of id answer with status.
func (m *MockAPI) FailLookup(id string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[id] = status
}

// Count returns the number of requests received for procedure.
func (m *MockAPI) Count(procedure string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[procedure]
}

// CountID returns the number of lookups of id on procedure.
func (m *MockAPI) CountID(procedure, id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idCounts[procedure+":"+id]
}

// TransactionInputs returns the decoded inputs of every transactions request.
func (m *MockAPI) TransactionInputs() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.inputs))
	copy(out, m.inputs)
	return out
}

func (m *MockAPI) handle(w http.ResponseWriter, r *http.Request) {
	procedure := strings.TrimPrefix(r.URL.Path, "/trpc/")

	var input map[string]any
	if raw := r.URL.Query().Get("input"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			http.Error(w, "bad input", http.StatusBadRequest)
			return
		}
	}

	m.mu.Lock()
	m.counts[procedure]++
	m.mu.Unlock()

	switch procedure {
	case ProcTransactions:
		m.handleTransactions(w, input)
	case ProcUser:
		m.handleLookup(w, procedure, input, "userId", "username", m.users)
	case ProcCountry:
		m.handleLookup(w, procedure, input, "countryId", "name", m.countries)
	default:
		http.Error(w, "unknown procedure", http.StatusNotFound)
	}
}

func (m *MockAPI) handleTransactions(w http.ResponseWriter, input map[string]any) {
	cursor, _ := input["cursor"].(string)

	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	page, ok := m.pages[cursor]
	m.mu.Unlock()

	if !ok {
		http.Error(w, "unknown cursor", http.StatusNotFound)
		return
	}
	if page.Status != 0 && page.Status != http.StatusOK {
		w.WriteHeader(page.Status)
		return
	}
	if page.RawBody != "" {
		w.Write([]byte(page.RawBody))
		return
	}

	items := page.Items
	if items == nil {
		items = []map[string]any{}
	}
	data := map[string]any{"items": items}
	if page.NextCursor != "" {
		data["nextCursor"] = page.NextCursor
	}
	writeResult(w, data)
}

func (m *MockAPI) handleLookup(w http.ResponseWriter, procedure string, input map[string]any, idField, nameField string, names map[string]string) {
	id, _ := input[idField].(string)

	m.mu.Lock()
	m.idCounts[procedure+":"+id]++
	status, fails := m.failing[id]
	name, known := names[id]
	m.mu.Unlock()

	if fails {
		w.WriteHeader(status)
		return
	}
	if !known {
		// tRPC answers unknown entities with a 404 error envelope.
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"not found"}}`))
		return
	}
	writeResult(w, map[string]any{nameField: name})
}

func writeResult(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"data": data}})
}

// Trade builds a transaction item as the API returns it.
func Trade(seller, buyer, sellerCountry, buyerCountry, item string, quantity, money any, updatedAt string) map[string]any {
	return map[string]any{
		"_id":             seller + "-" + buyer + "-" + updatedAt,
		"sellerId":        seller,
		"buyerId":         buyer,
		"sellerCountryId": sellerCountry,
		"buyerCountryId":  buyerCountry,
		"itemCode":        item,
		"quantity":        quantity,
		"money":           money,
		"transactionType": "trading",
		"updatedAt":       updatedAt,
	}
}
