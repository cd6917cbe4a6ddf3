package cache

import "sync/atomic"

// Stats is a point-in-time view of cache activity. Counters only grow.
type Stats struct {
	Hits    uint64 // GetOrCreate calls answered from a Present value
	Misses  uint64 // GetOrCreate calls that ran the creator
	Joins   uint64 // GetOrCreate calls that waited on another caller's creation
	Created uint64 // successful creations
	Failed  uint64 // failed creations
	Removed uint64 // values removed by Remove, Clear or Close
	Evicted uint64 // values removed by expiry or capacity

	Entries  int // unexpired Present values
	InFlight int // creations in progress
	Closed   bool
}

// Attempts returns the number of finished creations.
func (s Stats) Attempts() uint64 {
	return s.Created + s.Failed
}

type counters struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	joins   atomic.Uint64
	created atomic.Uint64
	failed  atomic.Uint64
	removed atomic.Uint64
	evicted atomic.Uint64
}

// Stats returns current counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	inFlight := len(c.inflight)
	closed := c.closed
	c.mu.Unlock()

	return Stats{
		Hits:     c.stats.hits.Load(),
		Misses:   c.stats.misses.Load(),
		Joins:    c.stats.joins.Load(),
		Created:  c.stats.created.Load(),
		Failed:   c.stats.failed.Load(),
		Removed:  c.stats.removed.Load(),
		Evicted:  c.stats.evicted.Load(),
		Entries:  c.store.Len(),
		InFlight: inFlight,
		Closed:   closed,
	}
}
