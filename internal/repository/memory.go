package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the in-process fallback used when Redis is unavailable
// or not configured.
type MemoryCache struct {
	entries sync.Map
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, ok := m.entries.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(memoryEntry)
	if time.Now().After(entry.expiresAt) {
		m.entries.Delete(key)
		return nil, nil
	}
	return entry.value, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// TTLs are always bounded; a non-positive one means already expired.
	if ttl <= 0 {
		m.entries.Delete(key)
		return nil
	}
	m.entries.Store(key, memoryEntry{value: value, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		m.entries.Delete(key)
	}
	return nil
}
