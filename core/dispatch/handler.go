package dispatch

import (
	"sync"

	"github.com/codewandler/redispatch-go/internal/reflector"
)

// EventHandler handles one event. The handler's runtime type determines
// its type code, so handlers should be named types, not bare closures.
type EventHandler interface {
	HandleEvent(ctx *EventContext, ev Event) error
}

// HandlerRegistry maps event types to the handlers registered for them.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: map[string][]EventHandler{}}
}

// Register adds h to the handler set of the given event type name.
func (r *HandlerRegistry) Register(eventType string, h EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], h)
}

// HandlersFor returns the handlers registered for the runtime type of
// ev. An empty result is not an error: events without handlers are
// skipped during dispatch.
func (r *HandlerRegistry) HandlersFor(ev Event) []EventHandler {
	name := reflector.TypeInfoOf(ev).Name
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[name]
}

// RegisterHandlerFor registers h for event type E.
func RegisterHandlerFor[E Event](r *HandlerRegistry, h EventHandler) {
	r.Register(reflector.TypeInfoFor[E]().Name, h)
}
