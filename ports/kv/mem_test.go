package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	ctx := t.Context()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Put(ctx, s, "codes", map[string]int{"a": 1}))

	out, err := Get[map[string]int](ctx, s, "codes")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 1}, out)

	require.NoError(t, s.Delete(ctx, "codes"))
	_, err = s.Get(ctx, "codes")
	require.ErrorIs(t, err, ErrNotFound)
}
