package resilience

import (
	"fmt"
	"sync"
	"time"
)

// PenaltyConfig configures per-key failure backoff.
type PenaltyConfig struct {
	// InitialDelay is the block after the first failure.
	// Default: 1s
	InitialDelay time.Duration

	// MaxDelay caps the block.
	// Default: 1m
	MaxDelay time.Duration

	// Multiplier grows the block for each consecutive failure.
	// Default: 2.0
	Multiplier float64

	// ForgetAfter drops a key's failure history once this long has passed
	// since its last failure.
	// Default: 2 * MaxDelay
	ForgetAfter time.Duration
}

type penaltyEntry struct {
	failures int
	last     time.Time
	until    time.Time
}

// Penalty tracks consecutive failures per key and blocks new attempts for a
// key until its backoff has elapsed. A success clears the key.
//
// Penalty is safe for concurrent use.
type Penalty[K comparable] struct {
	config  PenaltyConfig
	backoff Backoff
	now     func() time.Time

	mu      sync.Mutex
	entries map[K]*penaltyEntry
}

const penaltySweepThreshold = 1024

// NewPenalty creates a per-key penalty table.
func NewPenalty[K comparable](config PenaltyConfig) *Penalty[K] {
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = time.Minute
	}
	if config.MaxDelay < config.InitialDelay {
		config.MaxDelay = config.InitialDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.ForgetAfter <= 0 {
		config.ForgetAfter = 2 * config.MaxDelay
	}

	return &Penalty[K]{
		config: config,
		backoff: Backoff{
			Strategy:     BackoffExponential,
			InitialDelay: config.InitialDelay,
			MaxDelay:     config.MaxDelay,
			Multiplier:   config.Multiplier,
		},
		now:     time.Now,
		entries: make(map[K]*penaltyEntry),
	}
}

// Check returns an error wrapping ErrPenalized while key is blocked.
func (p *Penalty[K]) Check(key K) error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[key]
	if !ok {
		return nil
	}
	now := p.now()
	if remaining := e.until.Sub(now); remaining > 0 {
		return fmt.Errorf("%w: %d consecutive failures, retry in %v", ErrPenalized, e.failures, remaining)
	}
	return nil
}

// Record updates key's history with the outcome of an attempt.
func (p *Penalty[K]) Record(key K, err error) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		delete(p.entries, key)
		return
	}

	now := p.now()
	e, ok := p.entries[key]
	if !ok || now.Sub(e.last) >= p.config.ForgetAfter {
		if len(p.entries) >= penaltySweepThreshold {
			p.sweepLocked(now)
		}
		e = &penaltyEntry{}
		p.entries[key] = e
	}
	e.failures++
	e.last = now
	e.until = now.Add(p.backoff.Delay(e.failures))
}

// Forget clears key's history.
func (p *Penalty[K]) Forget(key K) {
	if p == nil {
		return
	}
	p.mu.Lock()
	delete(p.entries, key)
	p.mu.Unlock()
}

// Failures returns key's consecutive failure count.
func (p *Penalty[K]) Failures(key K) int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[key]; ok {
		return e.failures
	}
	return 0
}

// Len returns the number of keys with a failure history.
func (p *Penalty[K]) Len() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *Penalty[K]) sweepLocked(now time.Time) {
	for k, e := range p.entries {
		if now.Sub(e.last) >= p.config.ForgetAfter {
			delete(p.entries, k)
		}
	}
}
