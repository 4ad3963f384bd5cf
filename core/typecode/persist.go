package typecode

import (
	"context"
	"errors"

	"github.com/codewandler/redispatch-go/ports/kv"
)

// Load restores a registry snapshot from store. A missing key yields an
// empty seed, not an error.
func Load(ctx context.Context, store kv.Store, key string, opts ...RegistryOption) (*Registry, error) {
	codes, err := kv.Get[map[string]int](ctx, store, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			return nil, err
		}
		codes = map[string]int{}
	}
	return NewRegistry(append([]RegistryOption{WithCodes(codes)}, opts...)...), nil
}

// Save persists the registry snapshot to store.
func Save(ctx context.Context, store kv.Store, key string, r *Registry) error {
	return kv.Put(ctx, store, key, r.Snapshot())
}
