package resilience

import (
	"context"
	"testing"
	"time"
)

func BenchmarkCircuitBreaker_ExecuteClosed(b *testing.B) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 100, ResetTimeout: time.Minute})
	ctx := context.Background()
	op := func(ctx context.Context) error { return nil }

	for b.Loop() {
		_ = cb.Execute(ctx, op)
	}
}

func BenchmarkBulkhead_Execute(b *testing.B) {
	bh := NewBulkhead(BulkheadConfig{MaxConcurrent: 64, MaxWait: time.Second})
	ctx := context.Background()
	op := func(ctx context.Context) error { return nil }

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = bh.Execute(ctx, op)
		}
	})
}

func BenchmarkPenalty_Check(b *testing.B) {
	p := NewPenalty[int](PenaltyConfig{})
	for i := range 1000 {
		p.Record(i, errBoom)
	}

	i := 0
	for b.Loop() {
		_ = p.Check(i % 2000)
		i++
	}
}

func BenchmarkGuard_Execute(b *testing.B) {
	g := NewGuard(
		WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 64})),
		WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{})),
		WithRetry(NewRetry(RetryConfig{})),
		WithTimeout(time.Second),
	)
	ctx := context.Background()
	op := func(ctx context.Context) error { return nil }

	for b.Loop() {
		_ = g.Execute(ctx, op)
	}
}
