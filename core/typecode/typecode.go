// Package typecode maps runtime types to stable small integer codes.
//
// Type codes identify event and handler types across process boundaries
// and restarts, so persisted handle-records stay compact and do not
// depend on Go type names. Codes must therefore be stable: either
// register them explicitly, or persist the registry through a kv.Store.
package typecode

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/codewandler/redispatch-go/internal/reflector"
)

var ErrUnknownType = errors.New("unknown type")

// Provider resolves the stable code for a runtime type.
type Provider interface {
	CodeOf(t reflect.Type) (int, error)
}

// Registry is an in-memory Provider. With explicit registration it is
// deterministic by construction; in auto-assign mode it hands out
// sequential codes and should be persisted (see Snapshot/Restore) so
// assignments survive restarts.
type Registry struct {
	mu    sync.RWMutex
	codes map[string]int
	next  int
	auto  bool
}

type RegistryOption func(*Registry)

// WithAutoAssign makes CodeOf assign the next free code to unknown
// types instead of returning ErrUnknownType.
func WithAutoAssign() RegistryOption {
	return func(r *Registry) { r.auto = true }
}

// WithCodes seeds the registry with name -> code mappings, e.g. from a
// persisted snapshot.
func WithCodes(codes map[string]int) RegistryOption {
	return func(r *Registry) {
		for name, code := range codes {
			r.codes[name] = code
			if code >= r.next {
				r.next = code + 1
			}
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		codes: map[string]int{},
		next:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register assigns an explicit code to type T. Registering the same
// type twice with different codes is a configuration error.
func Register[T any](r *Registry, code int) error {
	name := reflector.TypeInfoFor[T]().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.codes[name]; ok && existing != code {
		return fmt.Errorf("type %s already registered with code %d", name, existing)
	}
	r.codes[name] = code
	if code >= r.next {
		r.next = code + 1
	}
	return nil
}

func (r *Registry) CodeOf(t reflect.Type) (int, error) {
	name := reflector.TypeInfoForType(t).Name

	r.mu.RLock()
	code, ok := r.codes[name]
	r.mu.RUnlock()
	if ok {
		return code, nil
	}

	if !r.auto {
		return 0, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok = r.codes[name]; ok {
		return code, nil
	}
	code = r.next
	r.next++
	r.codes[name] = code
	return code, nil
}

// Snapshot returns a copy of the current name -> code mapping, suitable
// for persisting via ports/kv.
func (r *Registry) Snapshot() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.codes))
	for name, code := range r.codes {
		out[name] = code
	}
	return out
}

var _ Provider = (*Registry)(nil)

// CodeFor resolves the code for the dynamic type of v.
func CodeFor(p Provider, v any) (int, error) {
	return p.CodeOf(reflect.TypeOf(v))
}
