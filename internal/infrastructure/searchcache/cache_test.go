package searchcache_test

import (
	"testing"
	"time"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/searchcache"
)

func TestCacheGetSet(t *testing.T) {
	cache := searchcache.New()

	if _, ok := cache.Get("missing"); ok {
		t.Error("Get() on empty cache returned a hit")
	}

	resp := &domainsearch.SearchResponse{Query: "golang", Answer: "cached"}
	cache.Set("key", resp)

	got, ok := cache.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Answer != "cached" {
		t.Errorf("Answer = %q, want cached", got.Answer)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := searchcache.NewWithTTL(10 * time.Millisecond)

	cache.Set("key", &domainsearch.SearchResponse{Query: "q"})
	if _, ok := cache.Get("key"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("key"); ok {
		t.Error("expected miss after TTL elapsed")
	}
	// Expired entry was evicted on read
	if n := cache.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0 after lazy eviction", n)
	}
}

func TestCacheNilResponseIgnored(t *testing.T) {
	cache := searchcache.New()
	cache.Set("key", nil)
	if _, ok := cache.Get("key"); ok {
		t.Error("nil responses must not be stored")
	}
}

func TestCachePurge(t *testing.T) {
	cache := searchcache.New()
	cache.Set("a", &domainsearch.SearchResponse{})
	cache.Set("b", &domainsearch.SearchResponse{})

	cache.Purge()

	if n := cache.Len(); n != 0 {
		t.Errorf("Len() = %d after Purge, want 0", n)
	}
}

func TestCacheDefaultTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		cache := searchcache.NewWithTTL(ttl)
		cache.Set("key", &domainsearch.SearchResponse{Query: "q"})
		if _, ok := cache.Get("key"); !ok {
			t.Errorf("NewWithTTL(%v) should fall back to the default TTL", ttl)
		}
	}
}
