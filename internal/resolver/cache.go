package resolver

import "sync"

// Cache memoizes Results by ID. Entries are written once and never change.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Result)}
}

// Get returns the cached result for id.
func (c *Cache) Get(id string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[id]
	return r, ok
}

// Lookup returns the cached name for id. Absent IDs report false.
func (c *Cache) Lookup(id string) (string, bool) {
	r, ok := c.Get(id)
	return r.Name, ok
}

// IsFallback reports whether id is cached with the ID fallback.
func (c *Cache) IsFallback(id string) bool {
	r, ok := c.Get(id)
	return ok && r.Outcome == Fallback
}

// Len returns the number of cached IDs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Store inserts r unless its ID is already present. It reports whether r
// was stored.
func (c *Cache) Store(r Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[r.ID]; ok {
		return false
	}
	c.entries[r.ID] = r
	return true
}

// Missing returns the unique non-empty ids not yet cached, in input order.
func (c *Cache) Missing(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := c.entries[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Fallbacks returns the number of IDs cached with the ID fallback.
func (c *Cache) Fallbacks() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, r := range c.entries {
		if r.Outcome == Fallback {
			n++
		}
	}
	return n
}
