// Package retry provides a bounded retry executor for named actions
// with a completion callback. Backoff is pluggable; the default is no
// delay, leaving pacing to the caller's policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

var (
	// ErrMaxAttempts is returned (wrapped around the last attempt's
	// error) when all attempts fail.
	ErrMaxAttempts = errors.New("retry: max attempts reached")
)

type (
	// Action is one attempt of the retried operation.
	Action func(ctx context.Context) error

	// DoneFunc receives the final outcome, exactly once: nil after the
	// first success, the wrapped last error after exhaustion.
	DoneFunc func(err error)

	// BackoffFunc returns the wait duration before retry attempt n
	// (one-based: 1 before the second attempt).
	BackoffFunc func(attempt int) time.Duration

	// ShouldRetryFunc classifies errors. Returning false stops
	// retrying immediately; the error is still reported via DoneFunc.
	ShouldRetryFunc func(err error) bool
)

type Option func(*options)

type options struct {
	log         *slog.Logger
	backoff     BackoffFunc
	shouldRetry ShouldRetryFunc
}

func WithLog(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithBackoff(backoff BackoffFunc) Option {
	return func(o *options) { o.backoff = backoff }
}

func WithShouldRetry(shouldRetry ShouldRetryFunc) Option {
	return func(o *options) { o.shouldRetry = shouldRetry }
}

// NoBackoff retries immediately.
func NoBackoff() BackoffFunc {
	return func(int) time.Duration { return 0 }
}

// ConstantBackoff waits delay before every retry.
func ConstantBackoff(delay time.Duration) BackoffFunc {
	return func(int) time.Duration { return delay }
}

// ExponentialBackoff waits initial * factor^(attempt-1), capped at max,
// with +/- jitter fraction applied (0 disables jitter).
func ExponentialBackoff(initial time.Duration, factor float64, max time.Duration, jitter float64) BackoffFunc {
	return func(attempt int) time.Duration {
		d := time.Duration(float64(initial) * math.Pow(factor, float64(attempt-1)))
		if max > 0 && d > max {
			d = max
		}
		if jitter > 0 {
			f := 1 + jitter*(2*rand.Float64()-1)
			d = time.Duration(float64(d) * f)
		}
		return d
	}
}

// RetryAllErrors retries on every error.
func RetryAllErrors() ShouldRetryFunc {
	return func(error) bool { return true }
}

// SkipErrors retries on every error except those matching (errors.Is)
// one of errs. Use this to exempt configuration errors that a retry
// cannot fix.
func SkipErrors(errs ...error) ShouldRetryFunc {
	return func(err error) bool {
		for _, e := range errs {
			if errors.Is(err, e) {
				return false
			}
		}
		return true
	}
}

// TryAction runs action up to maxAttempts times, stopping on the first
// success, a non-retryable error, or context cancellation. onDone is
// invoked exactly once with the final outcome, regardless of how the
// attempts ended.
func TryAction(ctx context.Context, name string, action Action, maxAttempts int, onDone DoneFunc, opts ...Option) {
	o := options{
		backoff:     NoBackoff(),
		shouldRetry: RetryAllErrors(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("action", name))

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = action(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info("action succeeded after retry", slog.Int("attempt", attempt))
			}
			break
		}

		if !o.shouldRetry(err) {
			log.Warn("action failed, not retryable",
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			break
		}

		if attempt == maxAttempts {
			err = fmt.Errorf("%w: %s after %d attempts: %w", ErrMaxAttempts, name, maxAttempts, err)
			log.Error("action failed, attempts exhausted",
				slog.Int("attempts", maxAttempts),
				slog.Any("error", err),
			)
			break
		}

		log.Warn("action failed, retrying",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		if delay := o.backoff(attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				err = ctx.Err()
				if onDone != nil {
					onDone(err)
				}
				return
			}
		}
	}

	if onDone != nil {
		onDone(err)
	}
}
