// Package health reports whether caches and the guards around them are fit
// to serve traffic.
//
// A Checker reports a Result with one of three statuses: Healthy, Degraded
// or Unhealthy. CacheChecker judges a cache by its creation failure ratio
// since the previous check. NewBreakerChecker mirrors a circuit breaker's
// state.
//
// # Usage
//
//	agg := health.NewAggregator()
//	agg.Register("reports-cache", health.NewCacheChecker(reports, health.CacheCheckerConfig{}))
//	agg.Register("reports-breaker", health.NewBreakerChecker("reports-breaker", breaker))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// RegisterHandlers mounts /healthz (liveness), /readyz (readiness) and
// /health (JSON detail).
package health
