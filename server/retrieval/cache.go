package retrieval

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mellowtone/tunescout/server/song"
)

// queryCache is a small LRU with TTL over recommendation results, keyed by
// (query, topK, filters). It skips repeated index round-trips for the
// refill and playlist-edit flows, which tend to reissue identical queries.
type queryCache struct {
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex

	cache map[string]*cacheEntry
	order *list.List
}

type cacheEntry struct {
	key       string
	value     []song.Record
	expiresAt time.Time
	element   *list.Element
}

func newQueryCache(capacity int, defaultTTL time.Duration) *queryCache {
	if capacity <= 0 {
		capacity = 256
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &queryCache{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		cache:      make(map[string]*cacheEntry),
		order:      list.New(),
	}
}

func cacheKey(query string, topK int, f Filters) string {
	return fmt.Sprintf("%s|%d|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(query)), topK,
		strings.ToLower(f.Decade), strings.ToLower(f.Genre), strings.ToLower(f.Mood))
}

func (c *queryCache) get(query string, topK int, f Filters) ([]song.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[cacheKey(query, topK, f)]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		return nil, false
	}

	c.order.MoveToFront(e.element)
	out := make([]song.Record, len(e.value))
	copy(out, e.value)
	return out, true
}

func (c *queryCache) set(query string, topK int, f Filters, value []song.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK, f)
	stored := make([]song.Record, len(value))
	copy(stored, value)

	if e, ok := c.cache[key]; ok {
		e.value = stored
		e.expiresAt = time.Now().Add(c.defaultTTL)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.cache) >= c.capacity {
		c.evictOldest()
	}

	e := &cacheEntry{
		key:       key,
		value:     stored,
		expiresAt: time.Now().Add(c.defaultTTL),
	}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
}

func (c *queryCache) removeEntry(e *cacheEntry) {
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}

func (c *queryCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.removeEntry(oldest.Value.(*cacheEntry))
}
