// Package intern keeps formatting objects unique. Host documents limit the
// number of distinct fonts and styles they can hold, so every object is built
// once per distinct key and then shared by everybody who asks for the same
// key.
package intern

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is get-or-create store safe for concurrent use. When disabled it
// stores nothing and builds a fresh value on every request.
type Cache[V any] struct {
	enabled bool

	mu      sync.RWMutex
	entries map[string]V
	flight  singleflight.Group
}

// New creates a cache, enabled controls memoization.
func New[V any](enabled bool) *Cache[V] {
	return &Cache[V]{
		enabled: enabled,
		entries: make(map[string]V),
	}
}

// Enabled reports whether values are memoized.
func (c *Cache[V]) Enabled() bool {
	return c.enabled
}

// GetOrCreate returns value stored under key, calling build to create it on
// first request. Concurrent requests for the same missing key wait for a
// single build and all get the same value.
func (c *Cache[V]) GetOrCreate(key string, build func() V) V {
	if !c.enabled {
		return build()
	}

	if v, ok := c.lookup(key); ok {
		return v
	}

	res, _, _ := c.flight.Do(key, func() (any, error) {
		// somebody could have finished while we were waiting for the flight
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v := build()

		c.mu.Lock()
		defer c.mu.Unlock()
		if old, ok := c.entries[key]; ok {
			return old, nil
		}
		c.entries[key] = v
		return v, nil
	})
	return res.(V)
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Clear drops all entries, subsequent requests build values again.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns number of distinct entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
