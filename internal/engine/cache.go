package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/sells-group/site-scout/internal/model"
)

// resultCache memoizes score results keyed by quantized coordinate and
// radius. Entries expire after a fixed TTL; there is no LRU ordering.
// The entry count is bounded so a scan over many distinct locations
// cannot grow the map without limit.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	result    model.ScoreResult
	expiresAt time.Time
}

func newResultCache(ttl time.Duration, max int) *resultCache {
	return &resultCache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// cacheKey quantizes coordinates to 5 decimal places (about one meter)
// so that float jitter from repeated clients still hits the same entry.
func cacheKey(coord model.Coordinate, radiusMeters float64) string {
	return fmt.Sprintf("%.5f|%.5f|%.0f", coord.Lat, coord.Lon, radiusMeters)
}

func (c *resultCache) get(key string) (model.ScoreResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return model.ScoreResult{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return model.ScoreResult{}, false
	}
	return e.result, true
}

func (c *resultCache) put(key string, result model.ScoreResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.max {
		c.pruneExpiredLocked()
	}
	// Still full after pruning: drop an arbitrary live entry to stay
	// bounded.
	if len(c.entries) >= c.max {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = cacheEntry{result: result, expiresAt: c.now().Add(c.ttl)}
}

func (c *resultCache) pruneExpiredLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
