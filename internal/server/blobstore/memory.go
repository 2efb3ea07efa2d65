package blobstore

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
)

// MemoryStore keeps blobs in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, data []byte) (string, error) {
	key := NewStorageKey(time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return key, nil
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[path]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, path)
	return nil
}

// Len reports the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// Overwrite replaces a stored blob in place. It exists to simulate storage
// corruption in tests.
func (m *MemoryStore) Overwrite(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[path] = append([]byte(nil), data...)
}
