package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// Cached wraps a ForecastProvider with an in-memory LRU cache. Entries
// expire after the configured TTL so stale forecasts are refetched.
type Cached struct {
	inner   domain.ForecastProvider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCached creates a cache decorator around a forecast provider.
func NewCached(inner domain.ForecastProvider, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *Cached {
	return &Cached{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl),
		metrics: metrics,
	}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Forecast(ctx context.Context, lat, lon float64) (domain.RainfallForecast, error) {
	// Round coordinates so nearby lookups for the same gauge share an entry.
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if fc, ok := c.cache.get(key); ok {
		c.metrics.ForecastCache.WithLabelValues("hit").Inc()
		return fc, nil
	}
	c.metrics.ForecastCache.WithLabelValues("miss").Inc()

	fc, err := c.inner.Forecast(ctx, lat, lon)
	if err != nil {
		return fc, err
	}
	// Only cache non-empty forecasts so transient gaps can be retried.
	if !fc.Empty() {
		c.cache.put(key, fc)
	}
	return fc, nil
}

// lruCache is a simple thread-safe LRU cache with per-entry expiry.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key      string
	value    domain.RainfallForecast
	storedAt time.Time
	prev     *entry
	next     *entry
}

func newLRUCache(maxEntries int, ttl time.Duration) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.RainfallForecast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.RainfallForecast{}, false
	}
	if domain.Now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, e.key)
		c.remove(e)
		return domain.RainfallForecast{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.RainfallForecast) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.storedAt = domain.Now()
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, storedAt: domain.Now()}
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
