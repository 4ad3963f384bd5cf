// Package es holds the event-sourcing ports the re-dispatch pipeline
// depends on. Aggregate persistence itself lives in the surrounding
// runtime; this package only defines the read access handlers get
// through their event context.
package es

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var ErrAggregateNotFound = errors.New("aggregate not found")

// Repository rehydrates aggregates by ID. Only read access is exposed
// to event handlers; writes stay with the owning runtime.
type Repository interface {
	// Load rehydrates the aggregate with the given ID into agg, which
	// must be a pointer. Returns ErrAggregateNotFound if no such
	// aggregate exists.
	Load(ctx context.Context, aggID string, agg any) error
}

// MemRepository is an in-memory Repository for tests. Aggregates are
// stored as JSON snapshots keyed by ID.
type MemRepository struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

func NewMemRepository() *MemRepository {
	return &MemRepository{data: map[string]json.RawMessage{}}
}

// Put stores a snapshot of agg under aggID.
func (m *MemRepository) Put(aggID string, agg any) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[aggID] = data
	return nil
}

func (m *MemRepository) Load(_ context.Context, aggID string, agg any) error {
	m.mu.RLock()
	data, ok := m.data[aggID]
	m.mu.RUnlock()
	if !ok {
		return ErrAggregateNotFound
	}
	return json.Unmarshal(data, agg)
}

var _ Repository = (*MemRepository)(nil)
