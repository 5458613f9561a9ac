package crm

import "sync"

type cityKey struct {
	name string
	uf   string
}

// cityCache memoizes city lookups, including confirmed-absent results.
// A nil value is a negative entry ("looked up, city does not exist"), which is
// distinct from a missing key ("never looked up"). Entries are only discarded
// by Clear; a later Set for an existing key is ignored so concurrent lookups
// racing on the same key stay idempotent.
type cityCache struct {
	mu      sync.RWMutex
	entries map[cityKey]*int
	enabled bool
}

func newCityCache(enabled bool) *cityCache {
	return &cityCache{
		entries: make(map[cityKey]*int),
		enabled: enabled,
	}
}

func (c *cityCache) Get(name, uf string) (id *int, found bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.enabled {
		return nil, false
	}
	id, found = c.entries[cityKey{name, uf}]
	return id, found
}

func (c *cityCache) Set(name, uf string, id *int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	key := cityKey{name, uf}
	if _, exists := c.entries[key]; exists {
		return
	}
	c.entries[key] = id
}

// Clear discards all entries, positive and negative.
func (c *cityCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cityKey]*int)
}

// SetEnabled toggles the cache. Disabling bypasses both lookup and storage.
func (c *cityCache) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *cityCache) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

func (c *cityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
