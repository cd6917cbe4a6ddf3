// Package cache provides a keyed, concurrent, memoizing cache with
// single-flight value creation.
//
// A Cache is built around a creator function. GetOrCreate returns the value
// stored for a key or, when none is stored, runs the creator for that key
// exactly once no matter how many goroutines ask for it at the same time.
// Callers that arrive while a creation is running wait for its outcome
// instead of starting their own.
//
// # Entry lifecycle
//
// Each key is in one of three states:
//
//	Absent ──GetOrCreate──▶ InProgress ──success──▶ Present
//	                              │
//	                              └──failure──▶ Absent
//
//	Present ──Remove / Clear / Close / expiry / capacity──▶ Absent
//
// Only Present values are stored. A failed creation stores nothing, so the
// next call for the key tries again. Use WithPenalty to make repeated
// failures back off per key.
//
// # Outcomes
//
// Creation errors never surface from GetOrCreate. The caller sees ok=false
// and subscribers registered with OnCreated and OnFailed are told what
// happened, exactly once per creation:
//
//	c.OnFailed(func(ctx context.Context, key string, err error) {
//	    log.Printf("build %s: %v", key, err)
//	})
//
// Notifications are delivered by a Dispatcher. SyncDispatcher (the default)
// runs subscribers on the creating goroutine; QueueDispatcher runs them in
// order on a dedicated goroutine.
//
// # Disposal
//
// WithDisposer registers a function that is called once for every value
// that leaves the cache, whichever path removes it. Remove and Clear call
// it synchronously and return its error. TTL expiry and capacity eviction
// call it in the background.
//
// # Usage
//
//	c, err := cache.New(func(ctx context.Context, id int) (*Report, error) {
//	    return buildReport(ctx, id)
//	},
//	    cache.WithName("reports"),
//	    cache.WithPolicy(cache.Policy{TTL: 10 * time.Minute, Capacity: 1000}),
//	    cache.WithDisposer(func(ctx context.Context, id int, r *Report) error {
//	        return r.Close()
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	defer c.Close(ctx)
//
//	report, ok, err := c.GetOrCreate(ctx, 42)
package cache
