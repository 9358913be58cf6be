package baseline

import (
	"context"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/cropsense/crop-analysis/internal/domain"
	"github.com/cropsense/crop-analysis/internal/observability"
)

// CachedProvider wraps a BaselineProvider with an in-memory LRU cache.
// Baseline grids change only when the historical archive does, so repeated
// snapshots for the same field and period can skip the upstream fetch.
type CachedProvider struct {
	inner   domain.BaselineProvider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider. metrics may
// be nil.
func NewCachedProvider(inner domain.BaselineProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) BaselineFor(ctx context.Context, fieldID, period string, rows, cols int) (*mat.Dense, error) {
	key := fmt.Sprintf("%s|%s|%dx%d", fieldID, period, rows, cols)
	if grid, ok := c.cache.get(key); ok {
		c.count("hit")
		return grid, nil
	}
	c.count("miss")

	grid, err := c.inner.BaselineFor(ctx, fieldID, period, rows, cols)
	if err != nil {
		return nil, err
	}
	// Only cache real grids so a field whose history fills in later is retried.
	if grid != nil {
		c.cache.put(key, grid)
	}
	return grid, nil
}

func (c *CachedProvider) count(result string) {
	if c.metrics != nil {
		c.metrics.BaselineCache.WithLabelValues(result).Inc()
	}
}

// lruCache is a simple thread-safe LRU cache for baseline grids.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *mat.Dense
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*mat.Dense, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *mat.Dense) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
