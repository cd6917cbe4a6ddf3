package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects every call until the reset timeout elapses.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30s
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of concurrent probes allowed.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called after each transition, outside the breaker lock.
	OnStateChange func(from, to State)

	// IsFailure reports whether err counts against the circuit.
	// Default: any error except ErrPenalized.
	IsFailure func(err error) bool
}

type transition struct{ from, to State }

// CircuitBreaker stops calling an operation that keeps failing.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	rejected    int64
	lastFailure time.Time
	probes      int
	pending     []transition
}

// NewCircuitBreaker creates a new circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return retryable(err) }
	}

	return &CircuitBreaker{config: config}
}

// Execute runs op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := op(ctx)
	cb.after(err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	s := cb.stateLocked()
	cb.mu.Unlock()
	cb.notify()
	return s
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.failures = 0
	cb.probes = 0
	cb.moveLocked(StateClosed)
	cb.mu.Unlock()
	cb.notify()
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.notify()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case StateOpen:
		cb.rejected++
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxRequests {
			cb.rejected++
			return ErrCircuitOpen
		}
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.notify()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			return
		}
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.config.MaxFailures {
			cb.moveLocked(StateOpen)
		}

	case StateHalfOpen:
		if failed {
			cb.lastFailure = time.Now()
			cb.moveLocked(StateOpen)
			return
		}
		cb.failures = 0
		cb.moveLocked(StateClosed)
	}
}

func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.config.ResetTimeout {
		cb.moveLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) moveLocked(to State) {
	if cb.state == to {
		return
	}
	cb.pending = append(cb.pending, transition{from: cb.state, to: to})
	cb.state = to
	if to == StateHalfOpen {
		cb.probes = 0
	}
}

// notify delivers queued transitions. It must be called without cb.mu held.
func (cb *CircuitBreaker) notify() {
	cb.mu.Lock()
	pending := cb.pending
	cb.pending = nil
	cb.mu.Unlock()

	if cb.config.OnStateChange == nil {
		return
	}
	for _, t := range pending {
		cb.config.OnStateChange(t.from, t.to)
	}
}

// Metrics returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	m := CircuitBreakerMetrics{
		State:       cb.stateLocked(),
		Failures:    cb.failures,
		Rejected:    cb.rejected,
		LastFailure: cb.lastFailure,
	}
	cb.mu.Unlock()
	cb.notify()
	return m
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State       State
	Failures    int
	Rejected    int64
	LastFailure time.Time
}
