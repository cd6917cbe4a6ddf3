package cache

import (
	"context"

	"github.com/cubekit/cube/observe"
	"github.com/cubekit/cube/resilience"
)

type settings struct {
	meta       observe.CacheMeta
	policy     Policy
	dispatcher Dispatcher
	inst       *observe.Instrumentation
	logger     observe.Logger
	guard      *resilience.Guard

	// typed per cache; checked in New
	disposer  any
	validator any
	penalty   any
}

// Option configures a Cache.
type Option func(*settings)

// WithName names the cache in logs, metrics and spans.
// Default: "cache".
func WithName(name string) Option {
	return func(s *settings) { s.meta.Name = name }
}

// WithNamespace sets the owning component reported with the cache name.
func WithNamespace(namespace string) Option {
	return func(s *settings) { s.meta.Namespace = namespace }
}

// WithPolicy sets expiry and capacity. Default: DefaultPolicy().
func WithPolicy(p Policy) Option {
	return func(s *settings) { s.policy = p }
}

// WithDisposer registers a function called once for each value that leaves
// the cache.
func WithDisposer[K comparable, V any](fn func(ctx context.Context, key K, value V) error) Option {
	return func(s *settings) { s.disposer = fn }
}

// WithKeyValidator replaces the default key check, which only rejects a
// nil interface key. A typed nil pointer passes the default check, so caches
// keyed by pointers should supply a validator that rejects nil.
func WithKeyValidator[K comparable](fn func(key K) error) Option {
	return func(s *settings) { s.validator = fn }
}

// WithDispatcher sets how Created and Failed notifications are delivered.
// The cache closes the dispatcher when it is closed.
// Default: SyncDispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(s *settings) { s.dispatcher = d }
}

// WithGuard runs every creation through the given resilience guard.
func WithGuard(g *resilience.Guard) Option {
	return func(s *settings) { s.guard = g }
}

// WithPenalty backs off creations for keys that failed recently.
func WithPenalty[K comparable](p *resilience.Penalty[K]) Option {
	return func(s *settings) { s.penalty = p }
}

// WithInstrumentation records lookups, creations and evictions.
func WithInstrumentation(in *observe.Instrumentation) Option {
	return func(s *settings) { s.inst = in }
}

// WithLogger overrides the logger taken from the instrumentation.
func WithLogger(l observe.Logger) Option {
	return func(s *settings) { s.logger = l }
}
