// Package resilience guards value creation.
//
// A cache creator usually talks to something slow or fragile: a database,
// a remote API, a compiler. The types in this package wrap such a creator
// so that the cache stays well behaved when the dependency is not.
//
// # Guards
//
//   - Retry: re-runs a failed creation with exponential, linear or
//     constant backoff.
//
//   - CircuitBreaker: stops calling a creator that keeps failing and lets
//     a single probe through after a cool-down.
//
//   - RateLimiter: bounds how often creations start (token bucket from
//     golang.org/x/time/rate).
//
//   - Bulkhead: bounds how many creations run at once (weighted semaphore
//     from golang.org/x/sync/semaphore).
//
//   - Timeout: gives each attempt a deadline. The attempt runs on the
//     caller's goroutine and must honor its context.
//
//   - Penalty: remembers per-key failures and refuses new attempts for a
//     key until its backoff has elapsed.
//
// # Composition
//
// Guard chains the process-wide guards in a fixed order:
//
//	guard := resilience.NewGuard(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 50, Burst: 5})),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 8})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 5})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(2*time.Second),
//	)
//
//	err := guard.Execute(ctx, func(ctx context.Context) error {
//	    v, err = load(ctx, key)
//	    return err
//	})
//
// Penalty is keyed and is applied by the cache before the guard runs.
package resilience
