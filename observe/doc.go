// Package observe provides observability primitives for cache activity.
//
// It is a pure instrumentation library: no caching and no I/O beyond
// exporter setup. The cache package consumes an Instrumentation to trace
// value creation, count lookups and evictions, and emit structured logs.
package observe
