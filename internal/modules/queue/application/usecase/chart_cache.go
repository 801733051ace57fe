package usecase

import (
	"sync"
	"time"
)

// DefaultChartCacheTTL bounds how long a closed day's chart is served from memory.
// Backfill can still add records to past days, so entries expire.
const DefaultChartCacheTTL = time.Minute

type chartCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]*chartCacheEntry
}

type chartCacheEntry struct {
	result   ChartResult
	cachedAt time.Time
}

func newChartCache(ttl time.Duration) *chartCache {
	return &chartCache{ttl: ttl, entries: make(map[string]*chartCacheEntry)}
}

func (c *chartCache) set(date string, result ChartResult, now time.Time) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := &chartCacheEntry{result: result, cachedAt: now}
	entry.result = entry.clone()
	c.entries[date] = entry
}

func (c *chartCache) get(date string, now time.Time) (ChartResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[date]
	c.mu.RUnlock()
	if !ok {
		return ChartResult{}, false
	}
	if now.Sub(entry.cachedAt) >= c.ttl {
		c.delete(date)
		return ChartResult{}, false
	}
	return entry.clone(), true
}

func (c *chartCache) delete(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, date)
}

func (e *chartCacheEntry) clone() ChartResult {
	out := e.result
	out.Series = append(out.Series[:0:0], e.result.Series...)
	if e.result.Summary != nil {
		summary := *e.result.Summary
		out.Summary = &summary
	}
	return out
}
