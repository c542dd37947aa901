package pipeline

import (
	"sync"

	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
	"github.com/couchcryptid/weather-measurements-etl/internal/observability"
)

// CachedExtractor wraps a MessageExtractor with an in-memory LRU memo keyed
// by message text. Station feeds repeat boilerplate messages, so identical
// texts skip the regex scan on later runs.
type CachedExtractor struct {
	inner   domain.MessageExtractor
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedExtractor creates a memo decorator around an extractor.
func NewCachedExtractor(inner domain.MessageExtractor, maxEntries int, metrics *observability.Metrics) *CachedExtractor {
	return &CachedExtractor{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedExtractor) ExtractMessage(message string) (*domain.Extraction, error) {
	if ext, ok := c.cache.get(message); ok {
		c.metrics.ExtractCache.WithLabelValues("hit").Inc()
		return &ext, nil
	}
	c.metrics.ExtractCache.WithLabelValues("miss").Inc()

	ext, err := c.inner.ExtractMessage(message)
	if err != nil {
		return nil, err
	}
	// Only successful matches are memoized; no-match messages are rare
	// enough per pattern set that re-scanning them is cheaper than tracking
	// a tri-state cache entry.
	if ext != nil {
		c.cache.put(message, *ext)
	}
	return ext, nil
}

// lruCache is a simple thread-safe LRU cache of extraction results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Extraction
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Extraction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Extraction{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Extraction) {
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
