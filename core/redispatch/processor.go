package redispatch

import (
	"context"
	"log/slog"

	"github.com/codewandler/redispatch-go/core/dispatch"
	"github.com/codewandler/redispatch-go/core/pool"
	"github.com/codewandler/redispatch-go/core/retry"
	"github.com/codewandler/redispatch-go/internal/shard"
)

// Aliases for the domain types callers construct and handle.
type (
	Event                = dispatch.Event
	EventStream          = dispatch.EventStream
	PublishableException = dispatch.PublishableException
)

// ProcessingContext is notified exactly once per submitted exception,
// after the re-dispatch attempts finished. "Processed" means
// "attempted": an exhausted retry still notifies, surfacing the
// unresolved failure only through logs and metrics.
type ProcessingContext interface {
	OnExceptionProcessed(ex *PublishableException)
}

// ProcessingContextFunc adapts a function to ProcessingContext.
type ProcessingContextFunc func(ex *PublishableException)

func (f ProcessingContextFunc) OnExceptionProcessed(ex *PublishableException) { f(ex) }

// processingItem pairs one exception with its caller-supplied
// completion context for the trip through the shard queue. It is owned
// exclusively by the worker that dequeues it.
type processingItem struct {
	ex   *PublishableException
	pctx ProcessingContext
}

type Option func(*options)

type options struct {
	log         *slog.Logger
	shards      int
	bufferSize  int
	sharder     shard.Sharder
	maxAttempts int
	backoff     retry.BackoffFunc
	poolMetrics pool.Metrics
}

func WithLog(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithShards sets the worker count (default 4).
func WithShards(n int) Option {
	return func(o *options) { o.shards = n }
}

// WithBufferSize sets the per-shard queue capacity (default 1024).
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithSharder overrides the routing function, e.g. shard.Seeded for
// personalized placement.
func WithSharder(s shard.Sharder) Option {
	return func(o *options) { o.sharder = s }
}

// WithMaxAttempts sets how often a stream dispatch is attempted before
// giving up (default 3).
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// WithBackoff sets the delay policy between attempts (default none).
func WithBackoff(b retry.BackoffFunc) Option {
	return func(o *options) { o.backoff = b }
}

func WithPoolMetrics(m pool.Metrics) Option {
	return func(o *options) { o.poolMetrics = m }
}

// Processor accepts publishable exceptions and re-dispatches their
// event streams on a sharded worker pool.
type Processor struct {
	log         *slog.Logger
	dispatcher  *dispatch.StreamDispatcher
	pool        *pool.Pool[processingItem]
	maxAttempts int
	backoff     retry.BackoffFunc
}

func NewProcessor(d *dispatch.StreamDispatcher, opts ...Option) *Processor {
	o := options{
		shards:      4,
		maxAttempts: 3,
		backoff:     retry.NoBackoff(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}

	p := &Processor{
		log:         o.log,
		dispatcher:  d,
		maxAttempts: o.maxAttempts,
		backoff:     o.backoff,
	}
	p.pool = pool.New[processingItem](pool.Options{
		Shards:     o.shards,
		BufferSize: o.bufferSize,
		Sharder:    o.sharder,
		Log:        o.log,
		Metrics:    o.poolMetrics,
	}, p.handle, p.onPanic)

	return p
}

// Start launches the shard workers. Cancelling ctx aborts processing;
// prefer Stop for a graceful drain.
func (p *Processor) Start(ctx context.Context) error {
	return p.pool.Start(ctx)
}

// Stop rejects new exceptions, drains the queued ones and waits for
// the workers to finish.
func (p *Processor) Stop() {
	p.pool.Stop()
}

// Process enqueues one exception for re-dispatch and returns
// immediately. pctx (may be nil) is notified exactly once when the
// attempts finished. Safe for concurrent use.
func (p *Processor) Process(ex *PublishableException, pctx ProcessingContext) error {
	return p.pool.Submit(ex.UniqueID(), processingItem{ex: ex, pctx: pctx})
}

// handle runs on a shard worker; items for the same exception id never
// run concurrently.
func (p *Processor) handle(ctx context.Context, item processingItem) {
	ex := item.ex

	retry.TryAction(ctx, "redispatch",
		func(ctx context.Context) error {
			return p.dispatcher.DispatchStream(ctx, ex)
		},
		p.maxAttempts,
		func(err error) {
			if item.pctx != nil {
				item.pctx.OnExceptionProcessed(ex)
			}
		},
		retry.WithLog(p.log.With(slog.String("exception_id", ex.UniqueID()))),
		retry.WithBackoff(p.backoff),
		retry.WithShouldRetry(retry.SkipErrors(dispatch.ErrMissingProcessID)),
	)
}

// onPanic keeps a fault in dispatch logic from stalling the shard; the
// completion contract still holds.
func (p *Processor) onPanic(recovered any, stack []byte, item processingItem) {
	p.log.Error("re-dispatch panicked",
		slog.String("exception_id", item.ex.UniqueID()),
		slog.Any("recovered", recovered),
		slog.String("stack", string(stack)),
	)
	if item.pctx != nil {
		item.pctx.OnExceptionProcessed(item.ex)
	}
}
