package provider

import (
	"context"
	"iter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/furisto/agentcore/resilience"
)

// Provider is the normalized interface every concrete model backend
// implements. Stream and Create share the same error taxonomy and retry
// policy. CountTokens asks the backend for a request's token count; the
// compaction path does not call it and works from reported usage instead.
type Provider interface {
	Name() string
	Stream(ctx context.Context, messages []Message, system string, tools []ToolDefinition, maxTokens int) (iter.Seq2[StreamChunk, error], error)
	Create(ctx context.Context, messages []Message, system string, tools []ToolDefinition, maxTokens int) (*StreamFinal, error)
	CountTokens(ctx context.Context, messages []Message, system string, tools []ToolDefinition) (int, error)
}

// Options configures the ambient behavior shared by every concrete
// Provider: retry policy, circuit breaker, metrics, client-side rate
// limiting and prompt caching.
type Options struct {
	RetryConfig    *resilience.RetryConfig
	CircuitBreaker *resilience.CircuitBreaker
	Metrics        *prometheus.Registry
	Limiter        *rate.Limiter
	EnablePromptCaching bool
	RetryCallback  func(ctx context.Context, notification RetryNotification)
}

type Option func(*Options)

func WithRetryConfig(cfg *resilience.RetryConfig) Option {
	return func(o *Options) { o.RetryConfig = cfg }
}

func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(o *Options) { o.CircuitBreaker = cb }
}

func WithMetrics(registry *prometheus.Registry) Option {
	return func(o *Options) { o.Metrics = registry }
}

func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(o *Options) { o.Limiter = limiter }
}

func WithPromptCaching(enabled bool) Option {
	return func(o *Options) { o.EnablePromptCaching = enabled }
}

func WithRetryCallback(cb func(ctx context.Context, notification RetryNotification)) Option {
	return func(o *Options) { o.RetryCallback = cb }
}

// DefaultOptions mirrors the teacher's DefaultProviderOptions: five
// attempts, one second initial backoff, ten second cap, a closed circuit
// breaker tripping after five consecutive failures.
func DefaultOptions(name string) *Options {
	return &Options{
		RetryConfig: &resilience.RetryConfig{
			MaxAttempts:       uint(5),
			InitialDelay:      1 * time.Second,
			MaxDelay:          10 * time.Second,
			BackoffMultiplier: 2,
		},
		CircuitBreaker: resilience.NewCircuitBreaker(name, 5, 10*time.Second),
		Metrics:        prometheus.NewRegistry(),
	}
}
