package health

import (
	"context"
	"fmt"
	"sync"

	"github.com/cubekit/cube/cache"
	"github.com/cubekit/cube/resilience"
)

// StatsSource is anything that reports cache statistics. *cache.Cache
// satisfies it for every key and value type.
type StatsSource interface {
	Name() string
	Stats() cache.Stats
}

// CacheCheckerConfig configures the cache health checker.
type CacheCheckerConfig struct {
	// WarningRatio is the creation failure ratio that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.2
	WarningRatio float64

	// CriticalRatio is the creation failure ratio that triggers unhealthy status.
	// Value should be between 0 and 1. Default: 0.5
	CriticalRatio float64

	// MinAttempts is the number of creations since the previous check needed
	// before the ratio is judged.
	// Default: 10
	MinAttempts uint64
}

// CacheChecker judges a cache by how many of its creations failed since the
// previous check. A closed cache is unhealthy.
type CacheChecker struct {
	source StatsSource
	config CacheCheckerConfig

	mu   sync.Mutex
	last cache.Stats
}

// NewCacheChecker creates a cache checker.
func NewCacheChecker(source StatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.WarningRatio <= 0 || config.WarningRatio >= 1 {
		config.WarningRatio = 0.2
	}
	if config.CriticalRatio <= 0 || config.CriticalRatio > 1 {
		config.CriticalRatio = 0.5
	}
	if config.CriticalRatio < config.WarningRatio {
		config.CriticalRatio = config.WarningRatio
	}
	if config.MinAttempts == 0 {
		config.MinAttempts = 10
	}

	return &CacheChecker{source: source, config: config}
}

// Name returns the cache name.
func (c *CacheChecker) Name() string {
	return c.source.Name()
}

// Check compares the current statistics with those seen by the previous check.
func (c *CacheChecker) Check(_ context.Context) Result {
	// Stats is read under mu so the baseline only moves forward.
	c.mu.Lock()
	stats := c.source.Stats()
	prev := c.last
	c.last = stats
	c.mu.Unlock()

	attempts := since(stats.Attempts(), prev.Attempts())
	failed := since(stats.Failed, prev.Failed)

	var failureRatio float64
	if attempts > 0 {
		failureRatio = float64(failed) / float64(attempts)
	}
	lookups := stats.Hits + stats.Misses + stats.Joins
	var hitRatio float64
	if lookups > 0 {
		hitRatio = float64(stats.Hits) / float64(lookups)
	}

	details := map[string]any{
		"entries":       stats.Entries,
		"in_flight":     stats.InFlight,
		"hits":          stats.Hits,
		"misses":        stats.Misses,
		"joins":         stats.Joins,
		"created":       stats.Created,
		"failed":        stats.Failed,
		"evicted":       stats.Evicted,
		"hit_ratio":     hitRatio,
		"attempts":      attempts,
		"failure_ratio": failureRatio,
	}

	if stats.Closed {
		return Unhealthy("cache is closed", ErrComponentClosed).WithDetails(details)
	}

	if attempts < c.config.MinAttempts {
		return Healthy(fmt.Sprintf("%d creations since last check", attempts)).WithDetails(details)
	}

	msg := fmt.Sprintf("%.1f%% of %d creations failed", failureRatio*100, attempts)
	switch {
	case failureRatio >= c.config.CriticalRatio:
		return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
	case failureRatio >= c.config.WarningRatio:
		return Degraded(msg).WithDetails(details)
	default:
		return Healthy(msg).WithDetails(details)
	}
}

// since returns the growth of a counter, or 0 when the source was replaced
// by one with a smaller count.
func since(now, before uint64) uint64 {
	if now < before {
		return 0
	}
	return now - before
}

// NewBreakerChecker reports an open circuit as unhealthy and a half-open
// one as degraded.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) *CheckerFunc {
	return NewCheckerFunc(name, func(context.Context) Result {
		m := cb.Metrics()
		details := map[string]any{
			"state":    m.State.String(),
			"failures": m.Failures,
			"rejected": m.Rejected,
		}

		switch m.State {
		case resilience.StateOpen:
			return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
		case resilience.StateHalfOpen:
			return Degraded("circuit probing").WithDetails(details)
		default:
			return Healthy("circuit closed").WithDetails(details)
		}
	})
}

var _ Checker = (*CacheChecker)(nil)
