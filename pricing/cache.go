// Package pricing resolves crypto prices from external sources with caching,
// currency conversion and source fallback.
package pricing

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long a cached price is served without a refresh.
const DefaultTTL = 30 * time.Second

type entry struct {
	price float64
	at    time.Time
}

// Cache is a TTL price cache keyed by (source, symbol, currency). Staleness
// is advisory: expired entries are skipped on read but stay in place until
// overwritten. The key space is bounded by the source/symbol/currency
// combinations, so there is no eviction.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached price for key if it is still within the TTL window.
func (c *Cache) Get(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.at) >= c.ttl {
		return 0, false
	}
	return e.price, true
}

// Put stores price under key with a fresh timestamp, overwriting
// unconditionally. Last writer wins under concurrent refresh.
func (c *Cache) Put(key string, price float64) {
	c.mu.Lock()
	c.entries[key] = entry{price: price, at: c.now()}
	c.mu.Unlock()
}
