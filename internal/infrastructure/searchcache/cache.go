package searchcache

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/metrics"
)

// DefaultTTL bounds how long a provider answer may be replayed.
const DefaultTTL = 2 * time.Minute

type entry struct {
	response  *domainsearch.SearchResponse
	expiresAt time.Time
}

// Cache provides in-memory caching for search responses keyed by the
// normalized request. Entries expire after the configured TTL; expired
// entries are dropped lazily on read.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
}

var _ domainsearch.Cache = (*Cache)(nil)

// New creates a cache with the default TTL.
func New() *Cache {
	return NewWithTTL(DefaultTTL)
}

// NewWithTTL creates a cache with a custom TTL (for testing and config overrides)
func NewWithTTL(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get returns the cached response for key when present and fresh.
func (c *Cache) Get(key string) (*domainsearch.SearchResponse, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		metrics.RecordCacheLookup(false)
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock, another writer may have refreshed it
		if cur, still := c.entries[key]; still && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		metrics.RecordCacheLookup(false)
		return nil, false
	}

	log.Debug().
		Dur("age", c.ttl-time.Until(e.expiresAt)).
		Msg("search cache hit")
	metrics.RecordCacheLookup(true)
	return e.response, true
}

// Set stores a response under key until the TTL elapses.
func (c *Cache) Set(key string, resp *domainsearch.SearchResponse) {
	if resp == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{
		response:  resp,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Len reports how many entries are held, counting expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
