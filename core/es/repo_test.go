package es

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type account struct {
	ID      string `json:"id"`
	Balance int    `json:"balance"`
}

func TestMemRepository(t *testing.T) {
	repo := NewMemRepository()
	require.NoError(t, repo.Put("acc-1", &account{ID: "acc-1", Balance: 42}))

	var got account
	require.NoError(t, repo.Load(t.Context(), "acc-1", &got))
	require.Equal(t, 42, got.Balance)

	err := repo.Load(t.Context(), "acc-2", &got)
	require.ErrorIs(t, err, ErrAggregateNotFound)
}
