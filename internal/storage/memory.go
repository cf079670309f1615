package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. A positive quota caps the
// total number of value bytes held, like a browser's local storage.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	size   int
	quota  int
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithQuota(0)
}

func NewMemoryStoreWithQuota(quota int) *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
		quota:  quota,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.size - len(m.values[key]) + len(value)
	if m.quota > 0 && size > m.quota {
		return ErrQuotaExceeded
	}

	m.values[key] = append([]byte(nil), value...)
	m.size = size
	return nil
}

// SetQuota changes the capacity; zero removes the limit
func (m *MemoryStore) SetQuota(quota int) {
	m.mu.Lock()
	m.quota = quota
	m.mu.Unlock()
}

// Size returns the number of value bytes held
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

func (m *MemoryStore) Close() error {
	return nil
}
