package provider

import (
	"context"
	"testing"
	"time"

	"github.com/furisto/agentcore/resilience"
)

// TestWithRetrySucceedsAfterRetriableFailures is spec.md §8 scenario 7: a
// provider that fails with a retriable error twice then succeeds, within
// MaxAttempts=3 (two retries), initial_delay=0.01s, must retry transparently and take at
// least initial_delay + 2*initial_delay before returning.
func TestWithRetrySucceedsAfterRetriableFailures(t *testing.T) {
	opts := &Options{
		RetryConfig: &resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     time.Second,
		},
	}

	var notifications []RetryNotification
	opts.RetryCallback = func(ctx context.Context, n RetryNotification) {
		notifications = append(notifications, n)
	}

	attempts := 0
	start := time.Now()
	result, err := withRetry(context.Background(), "anthropic", opts, func(ctx context.Context) (string, error) {
		attempts++
		if attempts <= 2 {
			return "", NewError("anthropic", ErrorKindRateLimit, errRateLimited)
		}
		return "ok", nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("withRetry() error = %v, want success after retries", err)
	}
	if result != "ok" {
		t.Fatalf("withRetry() result = %q, want %q", result, "ok")
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3 (2 failures + 1 success)", attempts)
	}
	if len(notifications) != 2 {
		t.Fatalf("retry notifications = %d, want 2", len(notifications))
	}
	for i, n := range notifications {
		if n.ErrorKind != ErrorKindRateLimit {
			t.Fatalf("notifications[%d].ErrorKind = %q, want %q", i, n.ErrorKind, ErrorKindRateLimit)
		}
	}
	if want := 10*time.Millisecond + 20*time.Millisecond; elapsed < want {
		t.Fatalf("elapsed = %v, want >= %v (0.01s + 0.02s backoff)", elapsed, want)
	}
}

// TestWithRetryPropagatesNonRetriableAuthFailure is spec.md §8 scenario 8: a
// non-retriable auth failure must propagate on the first attempt with zero
// retry notifications.
func TestWithRetryPropagatesNonRetriableAuthFailure(t *testing.T) {
	opts := &Options{
		RetryConfig: &resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     time.Second,
		},
	}

	var notifications []RetryNotification
	opts.RetryCallback = func(ctx context.Context, n RetryNotification) {
		notifications = append(notifications, n)
	}

	attempts := 0
	_, err := withRetry(context.Background(), "anthropic", opts, func(ctx context.Context) (string, error) {
		attempts++
		return "", NewError("anthropic", ErrorKindAuth, errBadCredentials)
	})

	pe := AsError("anthropic", err)
	if pe == nil || pe.Kind != ErrorKindAuth {
		t.Fatalf("withRetry() error = %v, want *Error with Kind %q", err, ErrorKindAuth)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retries for a non-retriable error)", attempts)
	}
	if len(notifications) != 0 {
		t.Fatalf("retry notifications = %d, want 0", len(notifications))
	}
}

// TestWithRetryOpenCircuitShortCircuitsBeforeCallingFn ensures a tripped
// CircuitBreaker rejects the call outright without invoking fn at all.
func TestWithRetryOpenCircuitShortCircuitsBeforeCallingFn(t *testing.T) {
	cb := resilience.NewCircuitBreaker("anthropic", 1, time.Minute)
	cb.RecordResult(errRateLimited)

	opts := &Options{CircuitBreaker: cb}

	calls := 0
	_, err := withRetry(context.Background(), "anthropic", opts, func(ctx context.Context) (string, error) {
		calls++
		return "unreachable", nil
	})

	if err == nil {
		t.Fatalf("withRetry() error = nil, want circuit-open error")
	}
	if calls != 0 {
		t.Fatalf("fn was called %d times, want 0 with an open circuit breaker", calls)
	}
}

var errRateLimited = customError("rate limited")
var errBadCredentials = customError("bad credentials")

type customError string

func (e customError) Error() string { return string(e) }
