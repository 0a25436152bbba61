// Package cache provides a bounded, time-expiring cache with single-flight
// loading, used for column-catalog lookups.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCache is a thread-safe cache with per-entry write-TTL expiration and a
// bounded entry count. Concurrent reads do not block each other; concurrent
// loads for the same key are coalesced through singleflight so a cache miss
// never stampedes the backing store.
type TTLCache[V any] struct {
	mu         sync.RWMutex
	data       map[string]entry[V]
	epochs     map[string]uint64
	maxEntries int
	ttl        time.Duration
	group      singleflight.Group
}

// New creates a TTLCache holding at most maxEntries values, each expiring
// ttl after it was written.
func New[V any](maxEntries int, ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		data:       make(map[string]entry[V]),
		epochs:     make(map[string]uint64),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get retrieves a value. Returns ok=false if the key is absent or expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || c.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetOrLoad returns the cached value for key, or runs load to populate it.
// Concurrent callers missing on the same key share a single load call.
// Load errors are not cached.
func (c *TTLCache[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have populated the
		// entry between our miss and acquiring the flight.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		before := c.epoch(key)
		loaded, err := load()
		if err != nil {
			return nil, err
		}
		// An Invalidate racing the load means the backing store changed while
		// we were reading it; the loaded value may predate that change, so it
		// must not be cached.
		if c.epoch(key) == before {
			c.Set(key, loaded)
		}
		return loaded, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Set stores a value under key, evicting the oldest entry if the cache is
// at capacity.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.data[key] = entry[V]{value: value, storedAt: time.Now()}
}

// Invalidate removes a single key and bumps its epoch so any load already in
// flight for the key discards its result instead of re-caching stale data.
func (c *TTLCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.epochs[key]++
}

func (c *TTLCache[V]) epoch(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epochs[key]
}

// Len returns the number of entries, counting expired ones not yet evicted.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *TTLCache[V]) expired(e entry[V]) bool {
	return c.ttl > 0 && time.Since(e.storedAt) >= c.ttl
}

// evictOldestLocked drops the entry with the oldest write time. Linear scan:
// the cache is bounded at around a thousand entries, so this stays cheap.
func (c *TTLCache[V]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.data {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.data, oldestKey)
	}
}
