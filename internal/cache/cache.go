// Package cache provides a concurrency-safe in-memory key/value store with
// per-entry expiry.
//
// Expiry is enforced on two paths: Get lazily removes an expired entry it
// discovers, and Sweep actively removes every expired entry in one full scan.
// Both paths share the same expiry predicate, so an entry is visible exactly
// while now < expiresAt.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the process-wide fallback lifetime for entries stored
// without an explicit TTL.
const DefaultTTL = 5 * time.Minute

// Option mutates cache configuration.
type Option[V any] func(*Cache[V])

// WithDefaultTTL overrides the fallback entry lifetime.
func WithDefaultTTL[V any](ttl time.Duration) Option[V] {
	return func(cache *Cache[V]) {
		if ttl > 0 {
			cache.defaultTTL = ttl
		}
	}
}

func withClock[V any](clock func() time.Time) Option[V] {
	return func(cache *Cache[V]) {
		if clock != nil {
			cache.clock = clock
		}
	}
}

// Cache stores values with per-entry expiry. All operations are total: there
// is no failure mode over the key space, and internal locking makes every
// call atomic at the call boundary.
type Cache[V any] struct {
	defaultTTL time.Duration
	clock      func() time.Time

	mu      sync.Mutex
	entries map[string]entry[V]
}

type entry[V any] struct {
	value     V
	cachedAt  time.Time
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Stats summarizes cache occupancy at one point in time.
type Stats struct {
	// Entries is the total stored entry count, expired or not.
	Entries int
	// Valid counts entries still visible to Get.
	Valid int
	// Expired counts entries past expiry but not yet removed by either path.
	Expired int
	// DefaultTTL is the configured fallback lifetime.
	DefaultTTL time.Duration
}

// New creates an empty cache.
func New[V any](options ...Option[V]) *Cache[V] {
	cache := &Cache[V]{
		defaultTTL: DefaultTTL,
		clock:      time.Now,
		entries:    make(map[string]entry[V]),
	}
	for _, option := range options {
		option(cache)
	}

	return cache
}

// Key builds a deterministic cache key from a prefix and named parameters.
// Parameter names are sorted before concatenation, so logically identical
// requests produce identical keys regardless of map construction order.
func Key(prefix string, params map[string]string) string {
	if len(params) == 0 {
		return prefix
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+1)
	parts = append(parts, prefix)
	for _, name := range names {
		parts = append(parts, name+"="+params[name])
	}

	return strings.Join(parts, ":")
}

// Set stores value under key with the default TTL, unconditionally
// overwriting any existing entry.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key with an explicit lifetime.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now()

	c.mu.Lock()
	c.entries[key] = entry[V]{
		value:     value,
		cachedAt:  now,
		expiresAt: now.Add(ttl),
	}
	c.mu.Unlock()
}

// Get returns the value stored under key while it is unexpired. A lazily
// discovered expired entry is removed as a side effect.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	now := c.now()

	c.mu.Lock()
	stored, exists := c.entries[key]
	if !exists {
		c.mu.Unlock()
		return zero, false
	}
	if stored.expired(now) {
		delete(c.entries, key)
		c.mu.Unlock()
		return zero, false
	}
	c.mu.Unlock()

	return stored.value, true
}

// Has reports whether key holds an unexpired entry.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.Get(key)

	return ok
}

// Delete removes key unconditionally.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Sweep removes every expired entry in one full scan and returns the count
// removed. It bounds growth from keys nobody reads again; a full scan is
// acceptable at this scale.
func (c *Cache[V]) Sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for key, stored := range c.entries {
		if stored.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}

// Stats returns occupancy counters split by logical validity.
func (c *Cache[V]) Stats() Stats {
	now := c.now()
	stats := Stats{DefaultTTL: c.defaultTTL}

	c.mu.Lock()
	stats.Entries = len(c.entries)
	for _, stored := range c.entries {
		if stored.expired(now) {
			stats.Expired++
			continue
		}
		stats.Valid++
	}
	c.mu.Unlock()

	return stats
}

func (c *Cache[V]) now() time.Time {
	return c.clock().UTC()
}
