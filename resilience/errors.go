package resilience

import "errors"

// Sentinel errors for guarded operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when no token was available in time.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when no slot was available in time.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an attempt overran its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrPenalized is returned when a key is still backing off after a failure.
	ErrPenalized = errors.New("resilience: key is penalized")
)
