package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cubekit/cube/resilience"
)

func ExampleNewCircuitBreaker() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
	})

	ctx := context.Background()
	unavailable := errors.New("backend unavailable")
	for range 2 {
		_ = cb.Execute(ctx, func(ctx context.Context) error { return unavailable })
	}

	err := cb.Execute(ctx, func(ctx context.Context) error { return nil })
	fmt.Println(cb.State())
	fmt.Println(errors.Is(err, resilience.ErrCircuitOpen))
	// Output:
	// open
	// true
}

func ExampleNewRetry() {
	r := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	fmt.Println(err, attempts)
	// Output:
	// <nil> 3
}

func ExampleNewGuard() {
	guard := resilience.NewGuard(
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})),
		resilience.WithTimeout(time.Second),
	)

	var value string
	err := guard.Execute(context.Background(), func(ctx context.Context) error {
		value = "rendered"
		return nil
	})

	fmt.Println(value, err)
	// Output:
	// rendered <nil>
}

func ExampleNewPenalty() {
	p := resilience.NewPenalty[string](resilience.PenaltyConfig{InitialDelay: time.Minute})

	p.Record("user:42", errors.New("lookup failed"))

	fmt.Println(errors.Is(p.Check("user:42"), resilience.ErrPenalized))
	fmt.Println(p.Check("user:7"))
	// Output:
	// true
	// <nil>
}

func ExampleBackoff_Delay() {
	b := resilience.Backoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}

	for n := 1; n <= 5; n++ {
		fmt.Println(b.Delay(n))
	}
	// Output:
	// 100ms
	// 200ms
	// 400ms
	// 800ms
	// 1s
}
