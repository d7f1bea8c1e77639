package scoring

import (
	"crypto/md5"
	"fmt"
	"sync"
	"time"
)

// Cache provides simple in-memory caching for scoring results, so re-running
// a sweep shortly after an interrupted one does not re-bill identical calls.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	result    *Result
	timestamp time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached result if present and not expired.
func (c *Cache) Get(postingID int64, variant Variant, cvText string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[cacheKey(postingID, variant, cvText)]
	if !exists {
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.result, true
}

func (c *Cache) Set(postingID int64, variant Variant, cvText string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(postingID, variant, cvText)] = &cacheEntry{
		result:    result,
		timestamp: time.Now(),
	}
}

// CleanExpired removes expired entries (call periodically).
func (c *Cache) CleanExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func cacheKey(postingID int64, variant Variant, cvText string) string {
	hash := md5.Sum([]byte(cvText))
	return fmt.Sprintf("%d|%s|%x", postingID, variant, hash)
}
