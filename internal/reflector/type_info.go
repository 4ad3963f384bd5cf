// Package reflector provides cached type reflection. Type names are
// used as stable identifiers for events and handlers, so they must be
// fully qualified and deterministic.
package reflector

import (
	"reflect"
	"sync"
)

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo holds metadata about a reflected type.
type TypeInfo struct {
	Name string       // Fully qualified name: "pkg/path.TypeName"
	Type reflect.Type // The underlying reflect.Type
}

// TypeInfoOf returns TypeInfo for the dynamic type of x.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeInfoForType returns TypeInfo for t. Pointer types resolve to
// their element type so *T and T share one identity. Results are
// cached; safe for concurrent use.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = TypeInfo{
		Name: t.PkgPath() + "." + t.Name(),
		Type: t,
	}

	muCache.Lock()
	cache[t] = ti
	muCache.Unlock()

	return ti
}
