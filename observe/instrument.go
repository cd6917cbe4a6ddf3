package observe

import (
	"context"
	"time"
)

// Instrumentation bundles tracing, metrics and logging for one or more caches.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Context: Create propagates the span context to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Instrumentation struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewInstrumentation creates an Instrumentation from its parts. Nil parts
// are replaced with no-ops.
func NewInstrumentation(tracer Tracer, metrics Metrics, logger Logger) *Instrumentation {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Instrumentation{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NopInstrumentation returns an Instrumentation that records nothing.
func NopInstrumentation() *Instrumentation {
	return NewInstrumentation(nil, nil, nil)
}

// InstrumentationFromObserver creates an Instrumentation from an Observer.
func InstrumentationFromObserver(obs Observer) (*Instrumentation, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewInstrumentation(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the logger scoped to meta.
func (in *Instrumentation) Logger(meta CacheMeta) Logger {
	return in.logger.WithCache(meta)
}

// Lookup records the outcome of one GetOrCreate call.
func (in *Instrumentation) Lookup(ctx context.Context, meta CacheMeta, outcome Outcome) {
	in.metrics.RecordLookup(ctx, meta, outcome)
}

// Evicted records n entries leaving the cache for reason.
func (in *Instrumentation) Evicted(ctx context.Context, meta CacheMeta, reason string, n int) {
	in.metrics.RecordEviction(ctx, meta, reason, n)
}

// Create runs fn inside a creation span and records its duration and outcome.
func (in *Instrumentation) Create(ctx context.Context, meta CacheMeta, key string, fn func(context.Context) error) error {
	ctx, span := in.tracer.StartSpan(ctx, meta, "create", key)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	in.tracer.EndSpan(span, err)
	in.metrics.RecordCreation(ctx, meta, duration, err)

	fields := []Field{
		{Key: "cache.key", Value: key},
		{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
	}
	logger := in.logger.WithCache(meta)
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		logger.Warn(ctx, "cache value creation failed", fields...)
	} else {
		logger.Debug(ctx, "cache value created", fields...)
	}

	return err
}
