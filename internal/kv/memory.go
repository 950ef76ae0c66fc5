package kv

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store. It is used as a test double and for
// ephemeral vaults that should not survive the process.
type MemoryStore struct {
	mu    sync.RWMutex
	pairs map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[string][]byte)}
}

// Get returns the value stored under key.
func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	v, ok := ms.pairs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores value under key.
func (ms *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	ms.pairs[key] = v
	return nil
}

// Delete removes key.
func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.pairs, key)
	return nil
}
