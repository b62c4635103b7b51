// internal/cache/cache.go

// Package cache implements a TTL and capacity bounded key/value store used
// to memoize expensive remote fetches. Eviction under capacity pressure is
// strictly oldest-created-first, not LRU; the cache is best-effort
// memoization, never a source of truth.
package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// entry holds one cached value with its lifecycle timestamps.
type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL cache with a capacity ceiling.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	defaultTTL time.Duration
	maxEntries int
	stopCh     chan struct{}
	stopOnce   sync.Once

	hits   int64
	misses int64
}

// Options configures a Cache.
type Options struct {
	DefaultTTL      time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
}

// overshootFactor is how far past MaxEntries a Set may go before an eager
// cleanup pass runs inline.
const overshootFactor = 1.2

// New creates a cache and starts its background janitor. The janitor
// goroutine never blocks process shutdown; call Stop for deterministic
// teardown.
func New[V any](opts Options) *Cache[V] {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 5 * time.Minute
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 500
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}

	c := &Cache[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: opts.DefaultTTL,
		maxEntries: opts.MaxEntries,
		stopCh:     make(chan struct{}),
	}

	go c.janitor(opts.CleanupInterval)
	return c
}

// janitor periodically sweeps expired entries independent of read/write
// traffic.
func (c *Cache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// Get returns the value for key if present and unexpired. An expired entry
// is lazily evicted on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key with the given TTL, or the default TTL when
// ttl <= 0. Exceeding 1.2x the capacity ceiling triggers an eager cleanup.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := time.Now()
	c.mu.Lock()
	c.entries[key] = entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	needsCleanup := float64(len(c.entries)) > float64(c.maxEntries)*overshootFactor
	c.mu.Unlock()

	if needsCleanup {
		c.Cleanup()
	}
}

// GetOrSet returns the cached value for key, or computes it via factory,
// stores it, and returns it. A concurrent race may compute the value twice;
// that duplicates work but never corrupts state.
func (c *Cache[V]) GetOrSet(key string, factory func() (V, error), ttl time.Duration) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

// Delete removes key from the cache.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Cleanup removes expired entries, then evicts oldest-created entries until
// the cache is at or under capacity. Returns how many entries were removed.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	if len(c.entries) > c.maxEntries {
		type aged struct {
			key       string
			createdAt time.Time
		}
		byAge := make([]aged, 0, len(c.entries))
		for key, e := range c.entries {
			byAge = append(byAge, aged{key, e.createdAt})
		}
		sort.Slice(byAge, func(i, j int) bool {
			return byAge[i].createdAt.Before(byAge[j].createdAt)
		})

		excess := len(c.entries) - c.maxEntries
		for _, a := range byAge[:excess] {
			delete(c.entries, a.key)
			removed++
		}
	}

	return removed
}

// Len returns the number of entries currently stored, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *Cache[V]) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Stop terminates the background janitor. Safe to call more than once.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// Key derives a stable cache key from a target (URL or query) and an
// arbitrary options value. Option fields are serialized with sorted keys so
// equivalent requests collide regardless of field order.
func Key(prefix, target string, options interface{}) string {
	canonical := canonicalize(options)
	return fmt.Sprintf("%s:%s:%s", prefix, target, canonical)
}

// canonicalize renders options as JSON with deterministically ordered keys.
func canonicalize(options interface{}) string {
	if options == nil {
		return "{}"
	}

	raw, err := json.Marshal(options)
	if err != nil {
		return fmt.Sprintf("%v", options)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}

	var sb strings.Builder
	writeCanonical(&sb, decoded)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(fmt.Sprintf("%q:", k))
			writeCanonical(sb, val[k])
		}
		sb.WriteByte('}')
	case []interface{}:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, item)
		}
		sb.WriteByte(']')
	default:
		raw, _ := json.Marshal(val)
		sb.Write(raw)
	}
}
