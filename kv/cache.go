package kv

import (
	"slices"
	"sort"
	"sync"
)

// Cache holds the last encoded value this client wrote or read for each key.
// It is process-local: writes made by other clients are never seen, so a
// cached key can be stale. Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	// Delete must not fail for keys that are not cached.
	Delete(key string)
}

// MapCache is the default Cache, an unbounded map. The last Set wins.
type MapCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMapCache() *MapCache {
	return &MapCache{entries: make(map[string][]byte)}
}

func (c *MapCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

func (c *MapCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = slices.Clone(value)
}

func (c *MapCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Keys returns the cached keys, sorted.
func (c *MapCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
