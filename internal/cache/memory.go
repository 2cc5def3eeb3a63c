package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/petcache/internal/observability"
)

// memoryCache is an LRU region with expire-after-write.
type memoryCache struct {
	name       string
	logger     observability.Logger
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	mu       sync.Mutex
	items    map[string]*list.Element
	eviction *list.List

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

func newMemoryCache(name string, maxEntries int, ttl time.Duration, logger observability.Logger) *memoryCache {
	return &memoryCache{
		name:       name,
		logger:     logger.With(observability.String("region", name), observability.String("tier", tierLocal)),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		items:      make(map[string]*list.Element),
		eviction:   list.New(),
	}
}

func (c *memoryCache) Name() string {
	return c.name
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	defer observeDuration(tierLocal, "get", start)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		c.recordMiss()
		return nil, false, nil
	}

	entry := elem.Value.(*memoryEntry)
	if c.expired(entry) {
		c.removeElement(elem)
		c.updateSizeGauge()
		c.recordEviction()
		c.recordMiss()
		return nil, false, nil
	}

	c.eviction.MoveToFront(elem)
	c.hits.Add(1)
	GetMetrics().hitsTotal.WithLabelValues(tierLocal, c.name).Inc()

	return entry.value, true, nil
}

func (c *memoryCache) GetOrLoad(ctx context.Context, key string, loader Loader) ([]byte, error) {
	return loadThrough(ctx, c, key, loader)
}

func (c *memoryCache) Put(_ context.Context, key string, value []byte) error {
	if value == nil {
		return ErrNilValue
	}

	start := time.Now()
	defer observeDuration(tierLocal, "put", start)

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	entry := &memoryEntry{key: key, value: value, expiresAt: expiresAt}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		elem.Value = entry
		c.eviction.MoveToFront(elem)
		return nil
	}

	c.items[key] = c.eviction.PushFront(entry)
	for c.eviction.Len() > c.maxEntries {
		c.evictOldest()
	}
	c.updateSizeGauge()

	return nil
}

func (c *memoryCache) Evict(_ context.Context, key string) error {
	start := time.Now()
	defer observeDuration(tierLocal, "evict", start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
		c.updateSizeGauge()
	}
	return nil
}

// Clear drops every entry. Statistics are kept.
func (c *memoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.updateSizeGauge()

	c.logger.Debug("region cleared")
	return nil
}

// Stats returns the cumulative counters. Size counts entries that have
// expired but not been swept yet.
func (c *memoryCache) Stats() Stats {
	c.mu.Lock()
	size := int64(c.eviction.Len())
	c.mu.Unlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      size,
	}
}

// removeExpired sweeps expired entries and returns how many were removed.
func (c *memoryCache) removeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*memoryEntry)) {
			c.removeElement(elem)
			c.recordEviction()
			removed++
		}
		elem = prev
	}
	if removed > 0 {
		c.updateSizeGauge()
		c.logger.Debug("expired entries removed", observability.Int("removed", removed))
	}
	return removed
}

// Must be called with lock held.
func (c *memoryCache) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt)
}

// Must be called with lock held.
func (c *memoryCache) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
		c.recordEviction()
	}
}

// Must be called with lock held.
func (c *memoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*memoryEntry).key)
}

// Must be called with lock held.
func (c *memoryCache) updateSizeGauge() {
	GetMetrics().sizeGauge.WithLabelValues(tierLocal, c.name).Set(float64(c.eviction.Len()))
}

func (c *memoryCache) recordMiss() {
	c.misses.Add(1)
	GetMetrics().missesTotal.WithLabelValues(tierLocal, c.name).Inc()
}

func (c *memoryCache) recordEviction() {
	c.evictions.Add(1)
	GetMetrics().evictionsTotal.WithLabelValues(tierLocal, c.name).Inc()
}

func observeDuration(tier, operation string, start time.Time) {
	GetMetrics().operationDuration.WithLabelValues(tier, operation).Observe(time.Since(start).Seconds())
}
