package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/redispatch-go/internal/shard"
)

func TestPool_OrderedWithinShard(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	p := New[int](Options{Shards: 4}, func(_ context.Context, item int) {
		mu.Lock()
		seen = append(seen, item)
		mu.Unlock()
		time.Sleep(time.Millisecond)
	}, nil)
	require.NoError(t, p.Start(t.Context()))

	// same key -> same shard -> strict submission order
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit("same-key", i))
	}
	p.Stop()

	require.Len(t, seen, 20)
	for i, v := range seen {
		require.Equal(t, i, v)
	}
}

func TestPool_ParallelAcrossShards(t *testing.T) {
	var running, maxRunning atomic.Int32

	// Const sharders per submit not possible; use distinct keys that
	// land on different shards by construction.
	p := New[string](Options{Shards: 4, Sharder: shard.NewSharder(func(key string) int {
		return int(key[0]-'a') % 4
	})}, func(_ context.Context, _ string) {
		cur := running.Add(1)
		for {
			max := maxRunning.Load()
			if cur <= max || maxRunning.CompareAndSwap(max, cur) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		running.Add(-1)
	}, nil)
	require.NoError(t, p.Start(t.Context()))

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, p.Submit(k, k))
	}
	p.Stop()

	require.GreaterOrEqual(t, maxRunning.Load(), int32(2))
}

func TestPool_StopDrainsQueuedItems(t *testing.T) {
	var processed atomic.Int32

	p := New[int](Options{Shards: 2, BufferSize: 64}, func(_ context.Context, _ int) {
		time.Sleep(time.Millisecond)
		processed.Add(1)
	}, nil)
	require.NoError(t, p.Start(t.Context()))

	for i := 0; i < 50; i++ {
		require.NoError(t, p.Submit("k", i))
	}
	p.Stop()

	require.Equal(t, int32(50), processed.Load())
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	p := New[int](Options{}, func(context.Context, int) {}, nil)
	require.ErrorIs(t, p.Submit("k", 1), ErrNotStarted)
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := New[int](Options{}, func(context.Context, int) {}, nil)
	require.NoError(t, p.Start(t.Context()))
	p.Stop()
	require.ErrorIs(t, p.Submit("k", 1), ErrClosed)
}

func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	var recovered atomic.Int32
	var processed atomic.Int32

	p := New[int](Options{Shards: 1}, func(_ context.Context, item int) {
		if item == 1 {
			panic("bad item")
		}
		processed.Add(1)
	}, func(r any, stack []byte, item int) {
		recovered.Add(1)
	})
	require.NoError(t, p.Start(t.Context()))

	require.NoError(t, p.Submit("k", 0))
	require.NoError(t, p.Submit("k", 1))
	require.NoError(t, p.Submit("k", 2))
	p.Stop()

	require.Equal(t, int32(1), recovered.Load())
	require.Equal(t, int32(2), processed.Load())
}

func TestPool_ContextCancelStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())

	block := make(chan struct{})
	p := New[int](Options{Shards: 1}, func(ctx context.Context, _ int) {
		<-block
	}, nil)
	require.NoError(t, p.Start(ctx))
	require.NoError(t, p.Submit("k", 1))

	cancel()
	close(block)

	// Stop must return promptly; workers observed cancellation.
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not stop after context cancellation")
	}
}
