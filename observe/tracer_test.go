package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCacheMeta_SpanName(t *testing.T) {
	tests := []struct {
		name string
		meta CacheMeta
		want string
	}{
		{"with namespace", CacheMeta{Namespace: "users", Name: "profiles"}, "cache.create.users.profiles"},
		{"without namespace", CacheMeta{Name: "sigma"}, "cache.create.sigma"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.SpanName("create"); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCacheMeta_Validate(t *testing.T) {
	if err := (CacheMeta{Name: "ok"}).Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := (CacheMeta{Namespace: "x"}).Validate(); !errors.Is(err, ErrMissingCacheName) {
		t.Errorf("expected ErrMissingCacheName, got %v", err)
	}
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), CacheMeta{Namespace: "users", Name: "profiles"}, "create", "42")
	tr.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := attrMap(spans[0].Attributes())
	if attrs["cache.name"].AsString() != "profiles" {
		t.Errorf("expected cache.name=profiles, got %v", attrs["cache.name"])
	}
	if attrs["cache.namespace"].AsString() != "users" {
		t.Errorf("expected cache.namespace=users, got %v", attrs["cache.namespace"])
	}
	if attrs["cache.key"].AsString() != "42" {
		t.Errorf("expected cache.key=42, got %v", attrs["cache.key"])
	}
	if attrs["cache.error"].AsBool() {
		t.Error("expected cache.error=false")
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", spans[0].Status().Code)
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), CacheMeta{Name: "sigma"}, "create", "7")
	tr.EndSpan(span, errors.New("creator failed"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected Error status, got %v", spans[0].Status().Code)
	}
	if spans[0].Status().Description != "creator failed" {
		t.Errorf("unexpected status description %q", spans[0].Status().Description)
	}
	if !attrMap(spans[0].Attributes())["cache.error"].AsBool() {
		t.Error("expected cache.error=true")
	}
	if len(spans[0].Events()) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}
}
