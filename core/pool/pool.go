// Package pool provides a sharded worker pool: a fixed set of workers,
// each draining its own FIFO queue. Items submitted with the same
// routing key always land on the same worker, giving strict per-key
// ordering while different keys proceed in parallel.
//
// Unlike a per-key scheduler, the worker set is fixed at construction,
// so goroutine count is bounded regardless of key cardinality. The pool
// is an owned resource: Start it with a context and Stop it to drain
// and shut down cleanly.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/codewandler/redispatch-go/internal/shard"
)

var (
	ErrNotStarted = errors.New("pool not started")
	ErrClosed     = errors.New("pool closed")
)

// Handler processes one dequeued item. It runs on the shard's worker
// goroutine; items on the same shard never run concurrently.
type Handler[T any] func(ctx context.Context, item T)

// OnPanic is called when a handler panics. The worker survives and
// moves on to the next item.
type OnPanic[T any] func(recovered any, stack []byte, item T)

type Options struct {
	// Shards is the number of workers/queues (default 4).
	Shards int
	// BufferSize is the per-shard queue capacity (default 1024).
	// Submit blocks while the shard's queue is full.
	BufferSize int
	// Sharder maps routing keys to shards (default FNV-1a distribution).
	Sharder shard.Sharder
	Log     *slog.Logger
	Metrics Metrics
}

type Pool[T any] struct {
	log     *slog.Logger
	sharder shard.Sharder
	queues  []chan T
	handle  Handler[T]
	onPanic OnPanic[T]
	metrics Metrics

	ctx      context.Context
	workerWg sync.WaitGroup

	mu       sync.Mutex
	started  bool
	closed   bool
	submitWg sync.WaitGroup // in-flight Submit calls
}

func New[T any](opt Options, handle Handler[T], onPanic OnPanic[T]) *Pool[T] {
	if opt.Shards <= 0 {
		opt.Shards = 4
	}
	if opt.BufferSize <= 0 {
		opt.BufferSize = 1024
	}
	if opt.Sharder == nil {
		opt.Sharder = shard.Distributed(opt.Shards)
	}
	if opt.Log == nil {
		opt.Log = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopMetrics()
	}

	queues := make([]chan T, opt.Shards)
	for i := range queues {
		queues[i] = make(chan T, opt.BufferSize)
	}

	p := &Pool[T]{
		log:     opt.Log,
		sharder: opt.Sharder,
		queues:  queues,
		handle:  handle,
		onPanic: onPanic,
		metrics: opt.Metrics,
	}
	if p.onPanic == nil {
		p.onPanic = func(recovered any, stack []byte, item T) {
			p.log.Error("worker panicked",
				slog.Any("recovered", recovered),
				slog.String("stack", string(stack)),
			)
		}
	}
	return p
}

// Start launches one worker goroutine per shard. Cancelling ctx stops
// the workers without draining; use Stop for a graceful drain.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.started {
		return nil
	}
	p.started = true
	p.ctx = ctx

	for i := range p.queues {
		p.workerWg.Add(1)
		go p.runWorker(i, p.queues[i])
	}

	p.log.Debug("pool started", slog.Int("shards", len(p.queues)))
	return nil
}

// Submit routes item to its shard by key and enqueues it. It blocks
// only on the shard queue's backpressure. Safe for concurrent use.
func (p *Pool[T]) Submit(key string, item T) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrNotStarted
	}
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.submitWg.Add(1)
	p.mu.Unlock()
	defer p.submitWg.Done()

	s := p.sharder.GetShardForKey(key)
	select {
	case p.queues[s] <- item:
		p.metrics.QueueDepth(s, len(p.queues[s]))
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Stop rejects further submissions, drains all queued items and waits
// for the workers to finish. Idempotent.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if p.closed || !p.started {
		p.closed = true
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	// wait for in-flight Submit calls before closing the queues
	p.submitWg.Wait()
	for _, q := range p.queues {
		close(q)
	}
	p.workerWg.Wait()
	p.log.Debug("pool stopped")
}

func (p *Pool[T]) runWorker(i int, q chan T) {
	defer p.workerWg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case item, ok := <-q:
			if !ok {
				return
			}
			p.process(i, item)
			p.metrics.QueueDepth(i, len(q))
		}
	}
}

func (p *Pool[T]) process(i int, item T) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.PanicsRecovered(i)
			p.onPanic(r, debug.Stack(), item)
		}
	}()
	p.handle(p.ctx, item)
	p.metrics.ItemsProcessed(i)
}
