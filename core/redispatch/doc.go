// Package redispatch is the facade of the exception re-dispatch
// pipeline.
//
// A [Processor] accepts publishable exceptions and routes each one onto
// a sharded worker pool, keyed by the exception's unique id: repeated
// deliveries of the same logical failure serialize on one shard, while
// unrelated failures process in parallel. The owning shard worker runs
// the stream dispatch (see the dispatch package) under bounded retry
// (3 attempts by default) and finally notifies the caller's completion
// context exactly once, whether or not the re-dispatch fully succeeded.
//
// Minimal wiring:
//
//	registry := dispatch.NewHandlerRegistry()
//	dispatch.RegisterHandlerFor[OrderPlaced](registry, &MailerHandler{})
//
//	d := dispatch.NewStreamDispatcher(store, sender, repo, registry, codes)
//	p := redispatch.NewProcessor(d)
//	if err := p.Start(ctx); err != nil { ... }
//	defer p.Stop()
//
//	p.Process(ex, completionCtx)
package redispatch
