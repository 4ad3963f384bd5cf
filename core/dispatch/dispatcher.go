package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/codewandler/redispatch-go/core/es"
	"github.com/codewandler/redispatch-go/core/handles"
	"github.com/codewandler/redispatch-go/core/sf"
	"github.com/codewandler/redispatch-go/core/typecode"
	"github.com/codewandler/redispatch-go/internal/reflector"
)

type StreamDispatcherOption func(*StreamDispatcher)

func WithLog(log *slog.Logger) StreamDispatcherOption {
	return func(d *StreamDispatcher) { d.log = log }
}

func WithMetrics(m Metrics) StreamDispatcherOption {
	return func(d *StreamDispatcher) { d.metrics = m }
}

// WithCache overrides the cache tier (default: LRU over 1024 events).
// Pass handles.NewNopCache() to run store-only.
func WithCache(c handles.Cache) StreamDispatcherOption {
	return func(d *StreamDispatcher) { d.cache = c }
}

// StreamDispatcher fans an exception's event stream out to all
// registered handlers, enforcing at-most-once side effects via the
// two-tier handle-record dedup.
type StreamDispatcher struct {
	log      *slog.Logger
	cache    handles.Cache
	store    handles.Store
	sender   CommandSender
	repo     es.Repository
	registry *HandlerRegistry
	codes    typecode.Provider
	metrics  Metrics
	lookups  *sf.Group[bool]
}

func NewStreamDispatcher(
	store handles.Store,
	sender CommandSender,
	repo es.Repository,
	registry *HandlerRegistry,
	codes typecode.Provider,
	opts ...StreamDispatcherOption,
) *StreamDispatcher {
	d := &StreamDispatcher{
		store:    store,
		sender:   sender,
		repo:     repo,
		registry: registry,
		codes:    codes,
		lookups:  sf.New[bool](),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.cache == nil {
		d.cache = handles.NewLRU(handles.LRUOpts{})
	}
	if d.metrics == nil {
		d.metrics = NopMetrics()
	}
	return d
}

// DispatchStream delivers every event of the exception's stream to
// every handler registered for its type. All (event, handler) pairs are
// attempted even when some fail; failures are aggregated into the
// returned error. Only after the whole stream succeeded are the
// cache-tier records evicted: the store tier then carries the durable
// proof and the cache entries just occupy memory.
func (d *StreamDispatcher) DispatchStream(ctx context.Context, ex *PublishableException) error {
	log := d.log.With(slog.String("exception_id", ex.UniqueID()))

	var errs []error
	for _, ev := range ex.Stream().Events {
		hs := d.registry.HandlersFor(ev)
		if len(hs) == 0 {
			log.Debug("no handlers registered",
				slog.String("event_id", ev.EventID()),
				slog.String("event_type", reflector.TypeInfoOf(ev).Name),
			)
			continue
		}
		for _, h := range hs {
			if err := d.dispatchOne(ctx, ex, ev, h); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		d.metrics.StreamsDispatched(false)
		return err
	}

	for _, ev := range ex.Stream().Events {
		d.cache.Remove(ev.EventID())
	}
	d.metrics.StreamsDispatched(true)
	return nil
}

// dispatchOne delivers one event to one handler. Already-handled pairs
// short-circuit to success; a store-tier lookup failure is a failure of
// the pair (never assume "not yet handled" when the authoritative tier
// is unreachable).
func (d *StreamDispatcher) dispatchOne(ctx context.Context, ex *PublishableException, ev Event, h EventHandler) (err error) {
	evType := reflector.TypeInfoOf(ev).Name
	defer d.metrics.DispatchDuration(evType).ObserveDuration()
	defer func() {
		d.metrics.EventsDispatched(evType, err == nil)
	}()

	evCode, err := typecode.CodeFor(d.codes, ev)
	if err != nil {
		return fmt.Errorf("resolve event type code: %w", err)
	}
	hCode, err := typecode.CodeFor(d.codes, h)
	if err != nil {
		return fmt.Errorf("resolve handler type code: %w", err)
	}

	log := d.log.With(
		slog.Group("dispatch",
			slog.String("exception_id", ex.UniqueID()),
			slog.String("event_id", ev.EventID()),
			slog.String("event_type", evType),
			slog.Int("handler_code", hCode),
		),
	)

	if _, ok := d.cache.Get(ev.EventID(), hCode); ok {
		d.metrics.DedupHit(TierCache)
		log.Debug("already handled (cache)")
		return nil
	}
	exists, err := d.lookups.Do(dedupKey(ev.EventID(), hCode), func() (bool, error) {
		return d.store.Exists(ctx, ev.EventID(), hCode)
	})
	if err != nil {
		return fmt.Errorf("handle store lookup for event %s: %w", ev.EventID(), err)
	}
	if exists {
		d.metrics.DedupHit(TierStore)
		log.Debug("already handled (store)")
		return nil
	}

	evCtx := newEventContext(ctx, d.repo, ex.Stream().Items)

	handleAt := time.Now()
	if err := h.HandleEvent(evCtx, ev); err != nil {
		log.Error("handler failed",
			slog.Any("error", err),
			slog.Duration("duration", time.Since(handleAt)),
		)
		return fmt.Errorf("handle event %s: %w", ev.EventID(), err)
	}

	if cmds := evCtx.Commands(); len(cmds) > 0 {
		if err := d.sendCommands(ctx, ex, ev, hCode, cmds); err != nil {
			return err
		}
	}

	rec := handles.Record{
		EventID:     ev.EventID(),
		HandlerCode: hCode,
		EventCode:   evCode,
		CreatedAt:   time.Now(),
	}
	// store first: durability before the fast path. A lost cache write
	// is harmless, the store check still catches the duplicate.
	if err := d.store.Add(ctx, rec); err != nil && !errors.Is(err, handles.ErrDuplicateRecord) {
		return fmt.Errorf("persist handle record for event %s: %w", ev.EventID(), err)
	}
	d.cache.Put(rec)

	log.Debug("handled", slog.Duration("duration", time.Since(handleAt)))
	return nil
}

func (d *StreamDispatcher) sendCommands(ctx context.Context, ex *PublishableException, ev Event, hCode int, cmds []any) error {
	processID := ex.ProcessID()
	if processID == "" {
		return fmt.Errorf("%w: exception %s", ErrMissingProcessID, ex.UniqueID())
	}

	for _, raw := range cmds {
		cmdCode, err := typecode.CodeFor(d.codes, raw)
		if err != nil {
			return fmt.Errorf("resolve command type code: %w", err)
		}
		key := ""
		if k, ok := raw.(Keyer); ok {
			key = k.CommandKey()
		}
		cmd := ProcessCommand{
			ID:        DeriveCommandID(ex.UniqueID(), key, hCode, cmdCode),
			Type:      reflector.TypeInfoOf(raw).Name,
			ProcessID: processID,
			Key:       key,
			EventID:   ev.EventID(),
			Payload:   raw,
		}
		if err := d.sender.Send(ctx, cmd); err != nil {
			return fmt.Errorf("send command %s: %w", cmd.ID, err)
		}
		d.metrics.CommandsSent(cmd.Type)
	}
	return nil
}

func dedupKey(eventID string, handlerCode int) string {
	return eventID + "/" + strconv.Itoa(handlerCode)
}
