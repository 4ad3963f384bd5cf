// Package kv defines a minimal key-value port used for small persisted
// registries (e.g. the type-code registry). Production deployments back
// it with NATS JetStream KV; tests use [MemStore].
package kv

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, err error)
	Delete(ctx context.Context, key string) error
}

// Put marshals v as JSON and stores it under key.
func Put[T any](ctx context.Context, store Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, data)
}

// Get loads key and unmarshals it into T.
func Get[T any](ctx context.Context, store Store, key string) (out T, err error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
