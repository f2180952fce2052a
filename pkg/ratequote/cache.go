package ratequote

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Quote holds the rates returned for one query, together with when they
// were fetched upstream.
type Quote struct {
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// CacheKey identifies one cached quote: the set of symbols queried and the
// currency they are quoted against. Symbol order does not matter.
func CacheKey(symbols []string, vsCurrency string) string {
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(s)))
	}
	sort.Strings(normalized)
	return strings.Join(normalized, ",") + "|" + strings.ToLower(vsCurrency)
}

// Cache is a TTL cache of quotes keyed by CacheKey. Entries older than the
// TTL are treated as absent; distinct symbol sets never share an entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Quote
	ttl     time.Duration
}

// NewCache creates a quote cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]Quote),
		ttl:     ttl,
	}
}

// Get returns the cached quote for key if it is still fresh.
func (c *Cache) Get(key string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok := c.entries[key]
	if !ok || time.Since(q.FetchedAt) > c.ttl {
		return Quote{}, false
	}
	return q, true
}

// Put stores a quote under key.
func (c *Cache) Put(key string, q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = q
}

// Purge drops all expired entries and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, q := range c.entries {
		if time.Since(q.FetchedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
