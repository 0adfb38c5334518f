package provider

import (
	"context"
	"log/slog"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// withRetry drives fn under the shared retry policy: exponential backoff
// with a jitterless cap (initial_delay * 2^attempt, capped at MaxDelay),
// applied only to retriable error kinds, honoring a provider-directed
// Retry-After when present. It notifies opts.RetryCallback before each
// retry and trips opts.CircuitBreaker on every outcome.
func withRetry[T any](ctx context.Context, providerName string, opts *Options, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if opts.CircuitBreaker != nil && !opts.CircuitBreaker.Allow() {
		return zero, NewError(providerName, ErrorKindServer, errCircuitOpen)
	}

	if opts.Limiter != nil {
		if err := opts.Limiter.Wait(ctx); err != nil {
			return zero, NewError(providerName, ErrorKindConnection, err)
		}
	}

	maxAttempts := uint(1)
	if opts.RetryConfig != nil && opts.RetryConfig.MaxAttempts > 0 {
		maxAttempts = opts.RetryConfig.MaxAttempts
	}

	var result T
	var lastErr error
	attemptCount := 0

	retryErr := retry.Do(
		func() error {
			attemptCount++
			var err error
			result, err = fn(ctx)
			lastErr = err
			if opts.CircuitBreaker != nil {
				opts.CircuitBreaker.RecordResult(err)
			}
			if err == nil {
				return nil
			}

			pe := AsError(providerName, err)
			if !pe.Retryable() {
				return retry.Unrecoverable(pe)
			}
			return pe
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxAttempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			pe := AsError(providerName, err)
			return pe.Retryable()
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			delay := initialDelay(opts) * (1 << n)
			if max := maxDelay(opts); max > 0 && delay > max {
				delay = max
			}
			if pe := AsError(providerName, err); pe != nil && pe.RetryAfter > 0 {
				delay = pe.RetryAfter
			}
			if opts.RetryCallback != nil {
				opts.RetryCallback(ctx, RetryNotification{
					Attempt:    int(n) + 1,
					MaxRetries: int(maxAttempts) - 1,
					ErrorKind:  errorKind(err),
				})
			}
			slog.DebugContext(ctx, "retrying provider call",
				"provider", providerName, "attempt", n+1, "delay", delay)
			return delay
		}),
	)

	if retryErr != nil {
		return zero, AsError(providerName, lastErr)
	}
	return result, nil
}

func initialDelay(opts *Options) time.Duration {
	if opts.RetryConfig != nil && opts.RetryConfig.InitialDelay > 0 {
		return opts.RetryConfig.InitialDelay
	}
	return time.Second
}

func maxDelay(opts *Options) time.Duration {
	if opts.RetryConfig != nil {
		return opts.RetryConfig.MaxDelay
	}
	return 0
}

func errorKind(err error) ErrorKind {
	var pe *Error
	if e, ok := err.(*Error); ok {
		pe = e
	} else {
		pe = NewError("unknown", ErrorKindUnknown, err)
	}
	return pe.Kind
}

var errCircuitOpen = circuitOpenError{}

type circuitOpenError struct{}

func (circuitOpenError) Error() string { return "circuit breaker open" }
