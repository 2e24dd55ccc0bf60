package clients

import (
	"sync"
	"time"
)

// ResponseCache is a small in-memory TTL cache for GET response bodies,
// keyed by full request URL. It exists so repeated scans over the same
// collection window within the TTL don't re-fetch identical pages.
type ResponseCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// NewResponseCache creates a cache with the given entry TTL.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached body for key, if present and unexpired.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.body, true
}

// Put stores a body under key, evicting expired entries opportunistically.
func (c *ResponseCache) Put(key string, body []byte) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{body: body, expires: now.Add(c.ttl)}
}

// Len returns the number of cached entries, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
