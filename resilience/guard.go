package resilience

import (
	"context"
	"time"
)

// Guard composes the process-wide guards around an operation.
//
// Layers are applied outermost first:
//  1. RateLimiter
//  2. Bulkhead
//  3. CircuitBreaker
//  4. Retry
//  5. Timeout (per attempt)
//
// A nil *Guard runs the operation unguarded.
type Guard struct {
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout

	chain func(context.Context, func(context.Context) error) error
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// NewGuard creates a guard from the given layers.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{}
	for _, opt := range opts {
		opt(g)
	}
	g.chain = g.build()
	return g
}

// WithRateLimiter adds rate limiting.
func WithRateLimiter(rl *RateLimiter) GuardOption {
	return func(g *Guard) { g.rateLimiter = rl }
}

// WithBulkhead adds a concurrency bound.
func WithBulkhead(b *Bulkhead) GuardOption {
	return func(g *Guard) { g.bulkhead = b }
}

// WithCircuitBreaker adds a circuit breaker.
func WithCircuitBreaker(cb *CircuitBreaker) GuardOption {
	return func(g *Guard) { g.circuitBreaker = cb }
}

// WithRetry adds retries.
func WithRetry(r *Retry) GuardOption {
	return func(g *Guard) { g.retry = r }
}

// WithTimeout adds a per-attempt deadline.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) { g.timeout = NewTimeout(TimeoutConfig{Timeout: d}) }
}

// WithTimeoutConfig adds a preconfigured per-attempt deadline.
func WithTimeoutConfig(t *Timeout) GuardOption {
	return func(g *Guard) { g.timeout = t }
}

type layer interface {
	Execute(context.Context, func(context.Context) error) error
}

func (g *Guard) build() func(context.Context, func(context.Context) error) error {
	// innermost first
	var layers []layer
	if g.timeout != nil {
		layers = append(layers, g.timeout)
	}
	if g.retry != nil {
		layers = append(layers, g.retry)
	}
	if g.circuitBreaker != nil {
		layers = append(layers, g.circuitBreaker)
	}
	if g.bulkhead != nil {
		layers = append(layers, g.bulkhead)
	}
	if g.rateLimiter != nil {
		layers = append(layers, g.rateLimiter)
	}

	return func(ctx context.Context, op func(context.Context) error) error {
		run := op
		for _, l := range layers {
			inner := run
			run = func(ctx context.Context) error {
				return l.Execute(ctx, inner)
			}
		}
		return run(ctx)
	}
}

// Execute runs op through every configured layer.
func (g *Guard) Execute(ctx context.Context, op func(context.Context) error) error {
	if g == nil || g.chain == nil {
		return op(ctx)
	}
	return g.chain(ctx, op)
}

// CircuitBreaker returns the configured breaker, or nil.
func (g *Guard) CircuitBreaker() *CircuitBreaker {
	if g == nil {
		return nil
	}
	return g.circuitBreaker
}
