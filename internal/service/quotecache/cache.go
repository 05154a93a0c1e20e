package quotecache

import (
	"context"
	"sort"
	"sync"
	"time"

	"StockWatch/internal/domain/models"
	pkgcache "StockWatch/pkg/cache"
)

const (
	snapshotIndexKey = "quotes:index"
	snapshotPrefix   = "quotes"
)

// Cache is the in-memory quote store. One record per symbol, replaced whole
// on update; a record older than the TTL is reported absent even though it
// stays in storage (diagnostics can still see it via Snapshot).
type Cache struct {
	ttl time.Duration

	mu          sync.RWMutex
	entries     map[string]models.Quote
	lastUpdate  time.Time
	initialized bool

	// optional write-through layer surviving restarts
	snap    pkgcache.Service
	snapTTL time.Duration
}

// Option configures the cache.
type Option func(*Cache)

// WithSnapshotLayer adds a write-through persistence layer (e.g. Redis).
func WithSnapshotLayer(s pkgcache.Service, ttl time.Duration) Option {
	return func(c *Cache) {
		c.snap = s
		c.snapTTL = ttl
	}
}

// New creates an empty cache with the given validity window.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		entries: make(map[string]models.Quote),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached quote for symbol if it is within the validity
// window. A stale or missing record reports absent.
func (c *Cache) Get(symbol string) (models.Quote, bool) {
	c.mu.RLock()
	q, ok := c.entries[symbol]
	c.mu.RUnlock()
	if !ok || q.Age(time.Now()) >= c.ttl {
		return models.Quote{}, false
	}
	return q, true
}

// Put atomically replaces the record for quote.Symbol and bumps the
// cache-wide lastUpdate marker.
func (c *Cache) Put(q models.Quote) {
	if q.FetchedAt.IsZero() {
		q.FetchedAt = time.Now()
	}
	c.mu.Lock()
	c.entries[q.Symbol] = q
	c.lastUpdate = time.Now()
	c.initialized = true
	c.mu.Unlock()

	if c.snap != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.snap.Set(ctx, pkgcache.GenerateKey(snapshotPrefix, q.Symbol), q, c.snapTTL)
		c.persistIndex(ctx)
	}
}

// Snapshot returns every stored record regardless of freshness, sorted by
// symbol for stable output.
func (c *Cache) Snapshot() []models.Quote {
	c.mu.RLock()
	out := make([]models.Quote, 0, len(c.entries))
	for _, q := range c.entries {
		out = append(out, q)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Fresh returns only the records still inside the validity window, sorted by
// symbol. Stale records stay out, same as Get.
func (c *Cache) Fresh() []models.Quote {
	now := time.Now()
	c.mu.RLock()
	out := make([]models.Quote, 0, len(c.entries))
	for _, q := range c.entries {
		if q.Age(now) >= c.ttl {
			continue
		}
		out = append(out, q)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Symbols returns the currently stored symbols.
func (c *Cache) Symbols() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.entries))
	for s := range c.entries {
		out = append(out, s)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Len reports the number of stored records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every record and resets the initialization marker.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]models.Quote)
	c.lastUpdate = time.Time{}
	c.initialized = false
	c.mu.Unlock()

	if c.snap != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.snap.DeleteByPattern(ctx, pkgcache.BuildPattern(snapshotPrefix))
	}
}

// Health classifies cache freshness from the lastUpdate marker.
func (c *Cache) Health() models.CacheHealth {
	return c.healthAt(time.Now())
}

func (c *Cache) healthAt(now time.Time) models.CacheHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h := models.CacheHealth{Symbols: len(c.entries)}
	if !c.initialized {
		h.Status = models.CacheUninitialized
		h.Message = "cache has not been populated yet"
		return h
	}

	age := now.Sub(c.lastUpdate)
	h.Age = age / time.Millisecond
	switch {
	case age > 24*time.Hour:
		h.Status = models.CacheStale
		h.Message = "cache data is older than 24 hours"
	case age > time.Hour:
		h.Status = models.CacheAging
		h.Message = "cache data is getting old"
	default:
		h.Status = models.CacheHealthy
		h.Message = "cache is fresh"
	}
	return h
}

// Restore loads persisted quotes from the snapshot layer, keeping only
// records still inside the validity window. Nil layer is a no-op.
func (c *Cache) Restore(ctx context.Context) int {
	if c.snap == nil {
		return 0
	}

	var symbols []string
	if err := c.snap.Get(ctx, snapshotIndexKey, &symbols); err != nil || len(symbols) == 0 {
		return 0
	}

	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = pkgcache.GenerateKey(snapshotPrefix, s)
	}
	quotes, err := pkgcache.MGetTyped[models.Quote](ctx, c.snap, keys...)
	if err != nil {
		return 0
	}

	now := time.Now()
	restored := 0
	c.mu.Lock()
	for _, q := range quotes {
		if q.Symbol == "" || q.Age(now) >= c.ttl {
			continue
		}
		c.entries[q.Symbol] = q
		restored++
	}
	if restored > 0 {
		c.lastUpdate = now
		c.initialized = true
	}
	c.mu.Unlock()
	return restored
}

func (c *Cache) persistIndex(ctx context.Context) {
	_ = c.snap.Set(ctx, snapshotIndexKey, c.Symbols(), c.snapTTL)
}
