package price

import (
	"sync"
	"time"

	"github.com/unitfund/fundd/internal/domain"
)

const cacheTTL = 30 * time.Second

type cacheEntry struct {
	quote     domain.PriceQuote
	expiresAt time.Time
}

type quoteCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newQuoteCache() *quoteCache {
	return &quoteCache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *quoteCache) get(key string) (domain.PriceQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return domain.PriceQuote{}, false
	}
	return entry.quote, true
}

func (c *quoteCache) set(key string, quote domain.PriceQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		quote:     quote,
		expiresAt: time.Now().Add(cacheTTL),
	}
}
