// Package cache provides the process-local TTL cache that fronts the query
// engine and the composed dashboard payload.
package cache

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/telemetry"
)

// DefaultTTL is applied when Set is called with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     interface{}
	writtenAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.writtenAt.Add(e.ttl))
}

// Stats is a point-in-time snapshot of cache effectiveness counters
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	Entries   int     `json:"entries"`
	HitRate   float64 `json:"hit_rate"`
}

// Cache is a mutex-guarded key/value store with per-entry TTL and
// substring-pattern invalidation. It is an injected service instance, not a
// package singleton, so tests construct isolated caches. A failure inside
// the cache is never surfaced to callers; the worst outcome is a miss.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64

	metrics *telemetry.Metrics
	log     *zap.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides the cache's time source. Used by tests to simulate
// TTL expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics attaches Prometheus counters for hits, misses and evictions.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates an empty cache.
func New(log *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key if it has not expired. An expired
// entry is evicted and reported as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.miss()
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		c.evict(1)
		c.miss()
		return nil, false
	}

	c.hits++
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
	return e.value, true
}

// Set stores value under key with the given TTL. A non-positive TTL falls
// back to DefaultTTL.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, writtenAt: c.now(), ttl: ttl}
}

// Delete removes the entry stored under key, if any.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := len(c.entries)
	c.entries = make(map[string]entry)
	c.evict(dropped)

	c.log.Info("Cache cleared", zap.Int("dropped_entries", dropped))
}

// InvalidatePattern deletes every key containing the substring. It is the
// tenant-scoped invalidation primitive: invalidating "company:123" drops all
// cached analytics for that company and nothing else. Returns the number of
// entries removed.
func (c *Cache) InvalidatePattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			removed++
		}
	}
	c.evict(removed)

	c.log.Info("Cache pattern invalidated",
		zap.String("pattern", pattern),
		zap.Int("removed_entries", removed))
	return removed
}

// Cleanup sweeps expired entries. It does not run on a timer; callers invoke
// it opportunistically. Returns the number of entries removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.evict(removed)
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.entries),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

func (c *Cache) miss() {
	c.misses++
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}

func (c *Cache) evict(n int) {
	if n <= 0 {
		return
	}
	c.evictions += uint64(n)
	if c.metrics != nil {
		c.metrics.CacheEvictions.Add(float64(n))
	}
}
