// Package cache provides a small expiring LRU used to keep badge, quest and
// chest definitions in memory between admin writes.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SchemaVersion is the current version of the cached entry layout.
// Increment this when a cached structure changes to auto-invalidate old entries
const SchemaVersion = "1.0"

const (
	DefaultSize = 256
	DefaultTTL  = 30 * time.Second
)

// Config sizes a cache
type Config struct {
	Size int
	TTL  time.Duration
}

// DefaultConfig returns the default cache sizing
func DefaultConfig() Config {
	return Config{Size: DefaultSize, TTL: DefaultTTL}
}

// Stats is a point-in-time view of cache effectiveness
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

type entry[V any] struct {
	Version  string
	Value    V
	CachedAt time.Time
}

// Cache is a typed expiring LRU. Cached values are shared between callers and
// must be treated as read-only.
type Cache[V any] struct {
	lru    *expirable.LRU[string, *entry[V]]
	hits   atomic.Int64
	misses atomic.Int64

	// gen is bumped by every invalidation; loads started under an older
	// generation are returned but not stored
	mu  sync.Mutex
	gen uint64
}

// New creates a cache. Non-positive sizes and TTLs fall back to the defaults.
func New[V any](cfg Config) *Cache[V] {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Cache[V]{
		lru: expirable.NewLRU[string, *entry[V]](cfg.Size, nil, cfg.TTL),
	}
}

// Get returns the cached value. Entries written under another schema version
// are dropped and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	e, found := c.lru.Get(key)
	if !found {
		c.misses.Add(1)
		return zero, false
	}
	if e.Version != SchemaVersion {
		c.lru.Remove(key)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.Value, true
}

// Set stores a value under the current schema version
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, &entry[V]{
		Version:  SchemaVersion,
		Value:    value,
		CachedAt: time.Now(),
	})
}

// GetOrLoad returns the cached value or loads and caches it. Load errors are
// not cached, and neither is a value loaded across an Invalidate or Clear.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.Set(key, v)
	}
	return v, nil
}

// Invalidate removes one key
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Remove(key)
}

// Clear removes all entries
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Purge()
}

// GetStats returns hit/miss counters and the current size
func (c *Cache[V]) GetStats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.lru.Len(),
	}
}
