package reflector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct{}

func TestTypeInfoOf_PointerAndValueShareIdentity(t *testing.T) {
	a := TypeInfoOf(sample{})
	b := TypeInfoOf(&sample{})
	require.Equal(t, a.Name, b.Name)
	require.Contains(t, a.Name, "internal/reflector.sample")
}

func TestTypeInfoFor(t *testing.T) {
	ti := TypeInfoFor[sample]()
	require.Equal(t, TypeInfoOf(sample{}).Name, ti.Name)
}

func TestTypeInfoForType_Nil(t *testing.T) {
	require.Equal(t, TypeInfo{}, TypeInfoForType(nil))
}
