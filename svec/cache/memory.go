package cache

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	dims    int
	entries map[string][]float32
}

func NewMemoryStore(dims int) *MemoryStore {
	return &MemoryStore{dims: dims, entries: make(map[string][]float32)}
}

func (m *MemoryStore) Get(ctx context.Context, keys []string) (map[string][]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]float32, len(keys))
	for _, k := range keys {
		if v, ok := m.entries[k]; ok {
			out[k] = append([]float32(nil), v...)
		}
	}
	return out, nil
}

// Put stores copies of entries.
func (m *MemoryStore) Put(ctx context.Context, entries map[string][]float32) error {
	for _, v := range entries {
		if m.dims > 0 && len(v) != m.dims {
			return fmt.Errorf("vector must have exactly %d dimensions, got %d", m.dims, len(v))
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.entries[k] = append([]float32(nil), v...)
	}
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }
