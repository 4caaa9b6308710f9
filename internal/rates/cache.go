package rates

import (
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a discovered labour rate stays valid.
const DefaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	rate     float64
	storedAt time.Time
}

// LabourRateCache is an in-memory TTL cache of labour rates keyed by
// location and job type, both case-insensitive. Expired entries are evicted
// lazily on read. Safe for concurrent use.
type LabourRateCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewLabourRateCache creates a cache with the given TTL. A non-positive TTL
// uses DefaultCacheTTL.
func NewLabourRateCache(ttl time.Duration) *LabourRateCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &LabourRateCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		nowFunc: time.Now,
	}
}

func cacheKey(location, jobType string) string {
	return strings.ToLower(strings.TrimSpace(location)) + ":" + strings.ToLower(strings.TrimSpace(jobType))
}

// Get returns the cached rate. An entry whose age has reached the TTL is
// treated as absent and removed.
func (c *LabourRateCache) Get(location, jobType string) (float64, bool) {
	key := cacheKey(location, jobType)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	if c.nowFunc().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return 0, false
	}
	return e.rate, true
}

// Set stores a rate, replacing any existing entry and resetting its age.
func (c *LabourRateCache) Set(location, jobType string, rate float64) {
	key := cacheKey(location, jobType)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{rate: rate, storedAt: c.nowFunc()}
}

// Clear removes every entry.
func (c *LabourRateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *LabourRateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTL returns the configured time to live.
func (c *LabourRateCache) TTL() time.Duration {
	return c.ttl
}
