// Loadtest drives the exception processor with synthetic exceptions and
// reports throughput. Metrics are exposed on /metrics.
//
// Run against NATS (docker run --net=host nats:latest -js):
//
//	NATS_URL=nats://localhost:4222 BACKEND=nats go run ./cmd/loadtest
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	gonanoid "github.com/matoous/go-nanoid/v2"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	natsadapter "github.com/codewandler/redispatch-go/adapters/nats"
	"github.com/codewandler/redispatch-go/adapters/prometheus"
	"github.com/codewandler/redispatch-go/core/dispatch"
	"github.com/codewandler/redispatch-go/core/es"
	"github.com/codewandler/redispatch-go/core/handles"
	"github.com/codewandler/redispatch-go/core/redispatch"
	"github.com/codewandler/redispatch-go/core/typecode"
)

type config struct {
	N           int           `env:"N" envDefault:"50000"`
	Shards      int           `env:"SHARDS" envDefault:"4"`
	BufferSize  int           `env:"BUFFER_SIZE" envDefault:"1024"`
	CacheSize   int           `env:"CACHE_SIZE" envDefault:"4096"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	Backend     string        `env:"BACKEND" envDefault:"mem"`
	MetricsAddr string        `env:"METRICS_ADDR" envDefault:":2112"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"5m"`
}

type paymentFailed struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
}

func (e paymentFailed) EventID() string { return e.ID }

type retryPayment struct {
	OrderID string `json:"order_id"`
}

func (c retryPayment) CommandKey() string { return c.OrderID }

type paymentHandler struct{}

func (paymentHandler) HandleEvent(ctx *dispatch.EventContext, ev dispatch.Event) error {
	ctx.AddCommand(retryPayment{OrderID: ev.(paymentFailed).OrderID})
	return nil
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Error("failed to parse config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	reg := promclient.NewRegistry()
	allMetrics := prometheus.NewAllMetrics(reg)
	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			log.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	var (
		store  handles.Store
		sender dispatch.CommandSender
		err    error
	)
	switch cfg.Backend {
	case "nats":
		store, err = natsadapter.NewHandleStore(natsadapter.HandleStoreConfig{})
		if err != nil {
			log.Error("failed to create handle store", slog.Any("error", err))
			os.Exit(1)
		}
		sender, err = natsadapter.NewSender(natsadapter.SenderConfig{})
		if err != nil {
			log.Error("failed to create sender", slog.Any("error", err))
			os.Exit(1)
		}
	default:
		var sent atomic.Int64
		store = handles.NewMemStore()
		sender = dispatch.SenderFunc(func(context.Context, dispatch.ProcessCommand) error {
			sent.Add(1)
			return nil
		})
	}

	codes := typecode.NewRegistry(typecode.WithAutoAssign())
	registry := dispatch.NewHandlerRegistry()
	dispatch.RegisterHandlerFor[paymentFailed](registry, paymentHandler{})

	d := dispatch.NewStreamDispatcher(
		store,
		sender,
		es.NewMemRepository(),
		registry,
		codes,
		dispatch.WithLog(log),
		dispatch.WithMetrics(allMetrics.Dispatch),
		dispatch.WithCache(handles.NewLRU(handles.LRUOpts{Size: cfg.CacheSize})),
	)

	p := redispatch.NewProcessor(d,
		redispatch.WithLog(log),
		redispatch.WithShards(cfg.Shards),
		redispatch.WithBufferSize(cfg.BufferSize),
		redispatch.WithMaxAttempts(cfg.MaxAttempts),
		redispatch.WithPoolMetrics(allMetrics.Pool),
	)
	if err := p.Start(ctx); err != nil {
		log.Error("failed to start processor", slog.Any("error", err))
		os.Exit(1)
	}

	var processed atomic.Int64
	done := make(chan struct{})
	pctx := redispatch.ProcessingContextFunc(func(*redispatch.PublishableException) {
		if processed.Add(1) == int64(cfg.N) {
			close(done)
		}
	})

	log.Info("starting loadtest", slog.Int("n", cfg.N), slog.Int("shards", cfg.Shards))
	startAt := time.Now()

	for i := 0; i < cfg.N; i++ {
		orderID := fmt.Sprintf("order-%d", i)
		ex := dispatch.NewPublishableException(
			gonanoid.Must(),
			map[string]string{dispatch.ProcessIDKey: orderID},
			redispatch.EventStream{
				ProcessID: orderID,
				Events: []dispatch.Event{
					paymentFailed{ID: gonanoid.Must(), OrderID: orderID},
				},
			},
		)
		if err := p.Process(ex, pctx); err != nil {
			log.Error("submit failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	select {
	case <-done:
	case <-ctx.Done():
		log.Error("timed out", slog.Int64("processed", processed.Load()))
		os.Exit(1)
	}
	p.Stop()

	elapsed := time.Since(startAt)
	log.Info("done",
		slog.Int64("processed", processed.Load()),
		slog.Duration("elapsed", elapsed),
		slog.Float64("per_second", float64(cfg.N)/elapsed.Seconds()),
	)
}
