package typecode

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/redispatch-go/ports/kv"
)

type evtA struct{}
type evtB struct{}

func TestRegistry_ExplicitCodes(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, Register[evtA](r, 10))
	require.NoError(t, Register[evtB](r, 20))

	code, err := CodeFor(r, evtA{})
	require.NoError(t, err)
	require.Equal(t, 10, code)

	// pointer resolves to the same type identity
	code, err = CodeFor(r, &evtA{})
	require.NoError(t, err)
	require.Equal(t, 10, code)

	// re-register with same code is fine, different code is not
	require.NoError(t, Register[evtA](r, 10))
	require.Error(t, Register[evtA](r, 11))
}

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.CodeOf(reflect.TypeOf(evtA{}))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestRegistry_AutoAssignIsStableWithinProcess(t *testing.T) {
	r := NewRegistry(WithAutoAssign())

	a1, err := CodeFor(r, evtA{})
	require.NoError(t, err)
	a2, err := CodeFor(r, evtA{})
	require.NoError(t, err)
	require.Equal(t, a1, a2)

	b, err := CodeFor(r, evtB{})
	require.NoError(t, err)
	require.NotEqual(t, a1, b)
}

func TestRegistry_PersistRoundtrip(t *testing.T) {
	ctx := t.Context()
	store := kv.NewMemStore()

	r := NewRegistry(WithAutoAssign())
	a, err := CodeFor(r, evtA{})
	require.NoError(t, err)
	require.NoError(t, Save(ctx, store, "typecodes", r))

	// restart: restore from the snapshot, codes must not move
	restored, err := Load(ctx, store, "typecodes", WithAutoAssign())
	require.NoError(t, err)

	a2, err := CodeFor(restored, evtA{})
	require.NoError(t, err)
	require.Equal(t, a, a2)

	b, err := CodeFor(restored, evtB{})
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestLoad_MissingKeyYieldsEmptyRegistry(t *testing.T) {
	r, err := Load(t.Context(), kv.NewMemStore(), "nope")
	require.NoError(t, err)
	_, err = r.CodeOf(reflect.TypeOf(evtA{}))
	require.ErrorIs(t, err, ErrUnknownType)
}
