// Package backoff provides a generic retrying invoker for fallible
// operations. It is a dumb retry primitive: it does not classify errors
// as retryable or not; callers mark errors that must not be retried
// with [Permanent], everything else is retried until the budget runs out.
package backoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Policy configures the retry schedule for one logical operation.
type Policy struct {
	// MaxRetries is the retry budget after the initial attempt.
	// Zero means a single attempt. Negative is a programmer error.
	MaxRetries int

	// InitialDelay is the wait before the first retry. It doubles after
	// every failed attempt (plain exponential, no jitter).
	InitialDelay time.Duration

	// MaxDelay caps delay growth. Zero means uncapped, acceptable for
	// small budgets, but set a cap if MaxRetries grows.
	MaxDelay time.Duration

	// AttemptTimeout bounds each individual attempt so a single hung call
	// cannot starve the retry schedule. Timed-out attempts count as
	// ordinary failures for retry purposes. Zero means no per-attempt bound.
	AttemptTimeout time.Duration
}

// ExhaustedError reports that every attempt failed. Attempts is the total
// number made (initial attempt plus retries); Err is the last cause.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Invoke stops immediately and returns the
// original error instead of burning the remaining retry budget. Use for
// failures where an identical retry cannot help (validation failures,
// malformed caller input).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Invoke runs op, retrying on failure per the policy with exponentially
// doubling delays. It returns the first successful result, the unwrapped
// cause of a [Permanent] error, ctx.Err() if the call was cancelled, or
// an [*ExhaustedError] once the budget is spent.
//
// Cancellation is observed before each attempt and during the backoff
// sleep; no further attempts are made after it is seen.
func Invoke[T any](ctx context.Context, logger *slog.Logger, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if p.MaxRetries < 0 {
		panic("backoff: negative MaxRetries")
	}
	if logger == nil {
		logger = slog.Default()
	}

	delay := p.InitialDelay
	maxAttempts := p.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := runAttempt(ctx, p.AttemptTimeout, op)
		if err == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", "attempt", attempt)
			}
			return result, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}

		// The caller abandoning the call is a distinct outcome, not a
		// failure to retry. A per-attempt deadline expiring is not;
		// that is treated like any other transport failure.
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		lastErr = err
		remaining := maxAttempts - attempt
		if remaining == 0 {
			break
		}

		logger.Warn("operation failed, retrying",
			"attempt", attempt,
			"remaining", remaining,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return zero, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// runAttempt executes op under the per-attempt timeout, if configured.
func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}
