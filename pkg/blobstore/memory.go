package blobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// MemoryStore is an in-process Store, useful for tests and single-process
// deployments that don't need durable blob storage.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[atomtypes.Cid32][]byte
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[atomtypes.Cid32][]byte)}
}

// Put stores payload under cid.
func (m *MemoryStore) Put(_ context.Context, cid atomtypes.Cid32, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[cid] = append([]byte(nil), payload...)
	return nil
}

// Get returns the payload stored under cid.
func (m *MemoryStore) Get(_ context.Context, cid atomtypes.Cid32) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[cid]
	if !ok {
		return nil, fmt.Errorf("blobstore: no blob for %s", cid)
	}
	return append([]byte(nil), v...), nil
}

// Has reports whether a blob for cid is stored.
func (m *MemoryStore) Has(_ context.Context, cid atomtypes.Cid32) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[cid]
	return ok, nil
}
