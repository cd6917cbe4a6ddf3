package resilience

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays grow between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant uses InitialDelay for every attempt.
	BackoffConstant
)

// String returns the strategy name.
func (s BackoffStrategy) String() string {
	switch s {
	case BackoffExponential:
		return "exponential"
	case BackoffLinear:
		return "linear"
	case BackoffConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// Backoff computes the delay that follows the n-th consecutive failure.
type Backoff struct {
	Strategy     BackoffStrategy
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Jitter adds up to 25% random delay on top of the computed value.
	Jitter bool
}

// Delay returns the wait after failure number n (1-based).
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}

	var delay time.Duration
	switch b.Strategy {
	case BackoffConstant:
		delay = b.InitialDelay
	case BackoffLinear:
		delay = b.InitialDelay * time.Duration(n)
	default:
		f := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(n-1))
		if f > float64(math.MaxInt64) {
			f = float64(math.MaxInt64)
		}
		delay = time.Duration(f)
	}

	if b.MaxDelay > 0 && (delay > b.MaxDelay || delay < 0) {
		delay = b.MaxDelay
	}

	if b.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}

	return delay
}
