package cache

import (
	"context"
	"sync"
	"time"
)

// Store holds serialized search responses for a short TTL. Implementations
// are best-effort: a broken cache degrades to a miss, never to an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is the in-process default used when no redis address is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Sweep anything already expired so the map tracks the working set.
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
}
