package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process Cache with TTL expiry and periodic sweeping.
type Memory struct {
	cache *gocache.Cache
}

var _ Cache = (*Memory)(nil)

// NewMemory creates a memory cache. Entries expire after defaultTTL and
// expired entries are swept every cleanupInterval.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &Memory{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns the value stored under key, or ErrCacheMiss.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if val, found := m.cache.Get(key); found {
		return val.([]byte), nil
	}
	return nil, ErrCacheMiss
}

// Set stores a value under key. A zero TTL uses the cache default.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Close flushes the cache.
func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}
