package handles

import (
	"context"
	"errors"
	"sync"
)

// ErrDuplicateRecord is returned by Add when a record for the same
// (event, handler) key already exists. Callers may treat it as success:
// the invariant "written at most once" still holds.
var ErrDuplicateRecord = errors.New("handle record already exists")

// Store is the persistent dedup tier.
type Store interface {
	Exists(ctx context.Context, eventID string, handlerCode int) (bool, error)
	Add(ctx context.Context, rec Record) error
}

// MemStore is an in-memory Store for tests and single-process setups.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]map[int]Record
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string]map[int]Record{}}
}

func (m *MemStore) Exists(_ context.Context, eventID string, handlerCode int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byHandler, ok := m.data[eventID]
	if !ok {
		return false, nil
	}
	_, ok = byHandler[handlerCode]
	return ok, nil
}

func (m *MemStore) Add(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byHandler, ok := m.data[rec.EventID]
	if !ok {
		byHandler = map[int]Record{}
		m.data[rec.EventID] = byHandler
	}
	if _, exists := byHandler[rec.HandlerCode]; exists {
		return ErrDuplicateRecord
	}
	byHandler[rec.HandlerCode] = rec
	return nil
}

var _ Store = (*MemStore)(nil)
