package util

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewLRUCache[string, int](CacheConfig{Capacity: 2})
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	cache.Put("a", 1)
	cache.Put("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("Expected \"a\" to be present")
	}

	cache.Put("c", 3)
	if _, ok := cache.Get("b"); ok {
		t.Error("Expected \"b\" to have been evicted")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Error("Expected \"a\" to survive eviction")
	}
	if cache.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", cache.Len())
	}
}

func TestLRUCacheUpdatesExistingKey(t *testing.T) {
	cache, err := NewLRUCache[string, int](CacheConfig{Capacity: 2})
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	cache.Put("a", 1)
	cache.Put("a", 2)

	if v, _ := cache.Get("a"); v != 2 {
		t.Errorf("Expected updated value 2, got %d", v)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected a single entry, got %d", cache.Len())
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	cache, err := NewLRUCache[string, int](CacheConfig{Capacity: 2, TTL: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	cache.Put("a", 1)
	time.Sleep(25 * time.Millisecond)

	if _, ok := cache.Get("a"); ok {
		t.Error("Expected the entry to have expired")
	}
}

func TestLRUCacheRejectsInvalidCapacity(t *testing.T) {
	if _, err := NewLRUCache[string, int](CacheConfig{}); err == nil {
		t.Error("Expected an error for a non-positive capacity")
	}
}
