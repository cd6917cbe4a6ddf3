package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome classifies a cache lookup.
type Outcome string

const (
	// OutcomeHit means a stored value was returned.
	OutcomeHit Outcome = "hit"
	// OutcomeMiss means the caller became the creator of the value.
	OutcomeMiss Outcome = "miss"
	// OutcomeJoin means the caller waited on another caller's creation.
	OutcomeJoin Outcome = "join"
)

// Metrics records cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup counts one GetOrCreate call by outcome.
	RecordLookup(ctx context.Context, meta CacheMeta, outcome Outcome)

	// RecordCreation records one creator invocation with duration and error status.
	RecordCreation(ctx context.Context, meta CacheMeta, duration time.Duration, err error)

	// RecordEviction counts n entries leaving the cache for reason.
	RecordEviction(ctx context.Context, meta CacheMeta, reason string, n int)
}

type metricsImpl struct {
	lookups      metric.Int64Counter
	creations    metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	evictions    metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	lookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Number of GetOrCreate calls by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	creations, err := meter.Int64Counter(
		"cache.creations",
		metric.WithDescription("Number of creator invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"cache.creation.errors",
		metric.WithDescription("Number of failed creator invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"cache.creation.duration_ms",
		metric.WithDescription("Creator duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Number of entries removed from the cache by reason"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookups:      lookups,
		creations:    creations,
		errorCount:   errorCount,
		durationHist: durationHist,
		evictions:    evictions,
	}, nil
}

func (m *metricsImpl) RecordLookup(ctx context.Context, meta CacheMeta, outcome Outcome) {
	attrs := append(meta.attributes(), attribute.String("cache.outcome", string(outcome)))
	m.lookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metricsImpl) RecordCreation(ctx context.Context, meta CacheMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.creations.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordEviction(ctx context.Context, meta CacheMeta, reason string, n int) {
	if n <= 0 {
		return
	}
	attrs := append(meta.attributes(), attribute.String("cache.reason", reason))
	m.evictions.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

type noopMetrics struct{}

func (noopMetrics) RecordLookup(context.Context, CacheMeta, Outcome)                {}
func (noopMetrics) RecordCreation(context.Context, CacheMeta, time.Duration, error) {}
func (noopMetrics) RecordEviction(context.Context, CacheMeta, string, int)          {}
