package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/redispatch-go/core/es"
	"github.com/codewandler/redispatch-go/core/handles"
	"github.com/codewandler/redispatch-go/core/typecode"
)

// === test fixtures ===

type orderPlaced struct {
	ID string
}

func (e orderPlaced) EventID() string { return e.ID }

type orderShipped struct {
	ID string
}

func (e orderShipped) EventID() string { return e.ID }

type shipOrder struct {
	OrderID string
}

func (c shipOrder) CommandKey() string { return c.OrderID }

type countingHandler struct {
	mu      sync.Mutex
	handled []string
	fail    map[string]error
	emit    []any
}

func (h *countingHandler) HandleEvent(ctx *EventContext, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err, ok := h.fail[ev.EventID()]; ok {
		return err
	}
	h.handled = append(h.handled, ev.EventID())
	for _, cmd := range h.emit {
		ctx.AddCommand(cmd)
	}
	return nil
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

type captureSender struct {
	mu   sync.Mutex
	sent []ProcessCommand
	err  error
}

func (s *captureSender) Send(_ context.Context, cmd ProcessCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, cmd)
	return nil
}

func newCodes(t *testing.T) *typecode.Registry {
	t.Helper()
	r := typecode.NewRegistry()
	require.NoError(t, typecode.Register[orderPlaced](r, 1))
	require.NoError(t, typecode.Register[orderShipped](r, 2))
	require.NoError(t, typecode.Register[countingHandler](r, 100))
	require.NoError(t, typecode.Register[shipOrder](r, 200))
	return r
}

type fixture struct {
	store    *handles.MemStore
	cache    handles.Cache
	sender   *captureSender
	registry *HandlerRegistry
	d        *StreamDispatcher
}

func newFixture(t *testing.T, opts ...StreamDispatcherOption) *fixture {
	t.Helper()
	f := &fixture{
		store:    handles.NewMemStore(),
		cache:    handles.NewLRU(handles.LRUOpts{Size: 64}),
		sender:   &captureSender{},
		registry: NewHandlerRegistry(),
	}
	f.d = NewStreamDispatcher(
		f.store,
		f.sender,
		es.NewMemRepository(),
		f.registry,
		newCodes(t),
		append([]StreamDispatcherOption{WithCache(f.cache)}, opts...)...,
	)
	return f
}

func exception(id, processID string, events ...Event) *PublishableException {
	items := map[string]string{}
	if processID != "" {
		items[ProcessIDKey] = processID
	}
	return NewPublishableException(id, items, EventStream{
		ProcessID: processID,
		Items:     items,
		Events:    events,
	})
}

// === tests ===

func TestDispatchStream_Idempotent(t *testing.T) {
	f := newFixture(t)
	h := &countingHandler{}
	RegisterHandlerFor[orderPlaced](f.registry, h)

	ex := exception("ex-1", "proc-1", orderPlaced{ID: "ev-1"})

	require.NoError(t, f.d.DispatchStream(t.Context(), ex))
	require.NoError(t, f.d.DispatchStream(t.Context(), ex))

	// side effects happened exactly once, one persisted record
	require.Equal(t, 1, h.count())
	ok, err := f.store.Exists(t.Context(), "ev-1", 100)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDispatchStream_StoreIsAuthoritativeWhenCacheCold(t *testing.T) {
	f := newFixture(t)
	h := &countingHandler{}
	RegisterHandlerFor[orderPlaced](f.registry, h)

	ex := exception("ex-1", "proc-1", orderPlaced{ID: "ev-1"})
	require.NoError(t, f.d.DispatchStream(t.Context(), ex))

	// full-stream success evicted the cache entry; the store record
	// alone must still prevent a second side effect
	_, ok := f.cache.Get("ev-1", 100)
	require.False(t, ok)

	require.NoError(t, f.d.DispatchStream(t.Context(), ex))
	require.Equal(t, 1, h.count())
}

func TestDispatchStream_PartialFailure(t *testing.T) {
	f := newFixture(t)
	errBoom := errors.New("boom")
	h := &countingHandler{fail: map[string]error{"ev-2": errBoom}}
	RegisterHandlerFor[orderPlaced](f.registry, h)

	ex := exception("ex-1", "proc-1",
		orderPlaced{ID: "ev-1"},
		orderPlaced{ID: "ev-2"},
		orderPlaced{ID: "ev-3"},
	)

	err := f.d.DispatchStream(t.Context(), ex)
	require.ErrorIs(t, err, errBoom)

	// events 1 and 3 were still attempted and recorded
	require.Equal(t, 2, h.count())
	for _, id := range []string{"ev-1", "ev-3"} {
		ok, err := f.store.Exists(t.Context(), id, 100)
		require.NoError(t, err)
		require.True(t, ok)
	}

	// eviction is all-or-nothing: on stream failure the cache keeps
	// the records of the pairs that did succeed
	_, ok := f.cache.Get("ev-1", 100)
	require.True(t, ok)
	_, ok = f.cache.Get("ev-3", 100)
	require.True(t, ok)
}

func TestDispatchStream_NoHandlersIsSuccess(t *testing.T) {
	f := newFixture(t)
	// nothing registered for orderShipped
	ex := exception("ex-1", "proc-1", orderShipped{ID: "ev-1"})
	require.NoError(t, f.d.DispatchStream(t.Context(), ex))
}

func TestDispatchStream_CommandsCarryDerivedIDAndProcessID(t *testing.T) {
	f := newFixture(t)
	h := &countingHandler{emit: []any{shipOrder{OrderID: "order-7"}}}
	RegisterHandlerFor[orderPlaced](f.registry, h)

	ex := exception("ex-1", "proc-1", orderPlaced{ID: "ev-1"})
	require.NoError(t, f.d.DispatchStream(t.Context(), ex))

	require.Len(t, f.sender.sent, 1)
	cmd := f.sender.sent[0]
	require.Equal(t, DeriveCommandID("ex-1", "order-7", 100, 200), cmd.ID)
	require.Equal(t, "proc-1", cmd.ProcessID)
	require.Equal(t, "ev-1", cmd.EventID)
	require.Equal(t, "order-7", cmd.Key)
}

func TestDispatchStream_RedispatchSendsNoDuplicateCommands(t *testing.T) {
	f := newFixture(t)
	h := &countingHandler{emit: []any{shipOrder{OrderID: "order-7"}}}
	RegisterHandlerFor[orderPlaced](f.registry, h)

	ex := exception("ex-1", "proc-1", orderPlaced{ID: "ev-1"})
	require.NoError(t, f.d.DispatchStream(t.Context(), ex))
	require.NoError(t, f.d.DispatchStream(t.Context(), ex))

	require.Len(t, f.sender.sent, 1)
}

func TestDispatchStream_MissingProcessID(t *testing.T) {
	f := newFixture(t)
	h := &countingHandler{emit: []any{shipOrder{OrderID: "order-7"}}}
	RegisterHandlerFor[orderPlaced](f.registry, h)

	ex := exception("ex-1", "", orderPlaced{ID: "ev-1"})

	err := f.d.DispatchStream(t.Context(), ex)
	require.ErrorIs(t, err, ErrMissingProcessID)

	// the pair failed: no record written, no command silently dropped
	ok, err2 := f.store.Exists(t.Context(), "ev-1", 100)
	require.NoError(t, err2)
	require.False(t, ok)
	require.Empty(t, f.sender.sent)
}

func TestDispatchStream_SenderFailureFailsPair(t *testing.T) {
	f := newFixture(t)
	errSend := errors.New("transport down")
	f.sender.err = errSend
	h := &countingHandler{emit: []any{shipOrder{OrderID: "order-7"}}}
	RegisterHandlerFor[orderPlaced](f.registry, h)

	ex := exception("ex-1", "proc-1", orderPlaced{ID: "ev-1"})
	err := f.d.DispatchStream(t.Context(), ex)
	require.ErrorIs(t, err, errSend)

	// no record: the pair must be re-attemptable
	ok, err2 := f.store.Exists(t.Context(), "ev-1", 100)
	require.NoError(t, err2)
	require.False(t, ok)
}

func TestDispatchStream_StoreLookupFailureFailsPair(t *testing.T) {
	errDown := errors.New("store down")
	f := newFixture(t)
	h := &countingHandler{}
	RegisterHandlerFor[orderPlaced](f.registry, h)

	d := NewStreamDispatcher(
		failingStore{err: errDown},
		f.sender,
		es.NewMemRepository(),
		f.registry,
		newCodes(t),
		WithCache(handles.NewNopCache()),
	)

	ex := exception("ex-1", "proc-1", orderPlaced{ID: "ev-1"})
	err := d.DispatchStream(t.Context(), ex)
	require.ErrorIs(t, err, errDown)
	require.Equal(t, 0, h.count())
}

type failingStore struct {
	err error
}

func (s failingStore) Exists(context.Context, string, int) (bool, error) { return false, s.err }
func (s failingStore) Add(context.Context, handles.Record) error         { return s.err }

func TestDeriveCommandID_Deterministic(t *testing.T) {
	a := DeriveCommandID("ex-1", "key", 100, 200)
	b := DeriveCommandID("ex-1", "key", 100, 200)
	require.Equal(t, a, b)
	require.Equal(t, "ex-1key100200", a)

	// empty key is treated as empty string, not omitted semantics
	require.Equal(t, "ex-1100200", DeriveCommandID("ex-1", "", 100, 200))
}

func TestEventContext_LoadAggregate(t *testing.T) {
	type account struct {
		Balance int `json:"balance"`
	}

	repo := es.NewMemRepository()
	require.NoError(t, repo.Put("acc-1", &account{Balance: 10}))

	c := newEventContext(t.Context(), repo, map[string]string{"k": "v"})

	got, err := LoadAggregate[account](c, "acc-1")
	require.NoError(t, err)
	require.Equal(t, 10, got.Balance)

	v, ok := c.Item("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}
