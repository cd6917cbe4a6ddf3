package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CacheMeta identifies a cache instance for telemetry purposes.
type CacheMeta struct {
	Name      string // Cache name (required)
	Namespace string // Owning component (optional)
}

// Validate reports whether the metadata is usable.
func (m CacheMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingCacheName
	}
	return nil
}

// ID returns the fully qualified cache identifier.
func (m CacheMeta) ID() string {
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

// SpanName returns the deterministic span name for an operation on this cache.
// Format: cache.<op>.<namespace>.<name> or cache.<op>.<name>
func (m CacheMeta) SpanName(op string) string {
	return "cache." + op + "." + m.ID()
}

func (m CacheMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("cache.name", m.Name),
	}
	if m.Namespace != "" {
		attrs = append(attrs, attribute.String("cache.namespace", m.Namespace))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with cache-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for one operation on one key.
	StartSpan(ctx context.Context, meta CacheMeta, op string, key string) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta CacheMeta, op string, key string) (context.Context, trace.Span) {
	attrs := append(meta.attributes(),
		attribute.String("cache.key", key),
		attribute.Bool("cache.error", false),
	)

	return t.tracer.Start(ctx, meta.SpanName(op),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CacheMeta, op string, _ string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName(op))
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
