package observe

import (
	"context"
	"testing"
	"time"
)

func TestLoggerContract_WithCache(t *testing.T) {
	logger := NopLogger()
	if logger.WithCache(CacheMeta{Name: "noop"}) == nil {
		t.Fatalf("WithCache should return non-nil logger")
	}
}

func TestMetricsContract_NoPanic(t *testing.T) {
	var metrics Metrics = noopMetrics{}
	ctx := context.Background()
	metrics.RecordLookup(ctx, CacheMeta{Name: "noop"}, OutcomeHit)
	metrics.RecordCreation(ctx, CacheMeta{Name: "noop"}, 10*time.Millisecond, nil)
	metrics.RecordEviction(ctx, CacheMeta{Name: "noop"}, "removed", 1)
}

func TestTracerContract_NoPanic(t *testing.T) {
	tracer := newNoopTracer()
	_, span := tracer.StartSpan(context.Background(), CacheMeta{Name: "noop"}, "create", "k")
	tracer.EndSpan(span, nil)
}
