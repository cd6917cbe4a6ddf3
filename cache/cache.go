package cache

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/jellydator/ttlcache/v3"

	"github.com/cubekit/cube/observe"
	"github.com/cubekit/cube/resilience"
)

// entry wraps a stored value. released is set by whichever path takes the
// value out of the cache first, so the disposer runs at most once per value.
type entry[V any] struct {
	value    V
	released atomic.Bool
}

func (e *entry[V]) claim() bool {
	return e.released.CompareAndSwap(false, true)
}

// Cache is a keyed memoizing cache with single-flight creation.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Creation: at most one creator call runs per key at a time. Creators
//     for distinct keys run in parallel.
//   - Context: the creator receives the owner's context without its
//     cancellation, so an impatient caller cannot fail a shared creation.
//   - Errors: creation errors are reported to OnFailed subscribers only.
type Cache[K comparable, V any] struct {
	meta     observe.CacheMeta
	create   func(context.Context, K) (V, error)
	dispose  func(context.Context, K, V) error
	validate func(K) error
	policy   Policy
	store    *ttlcache.Cache[K, *entry[V]]

	mu       sync.Mutex
	inflight map[K]*flight[V]
	closed   bool
	pending  sync.WaitGroup

	events   registry[K, V]
	dispatch Dispatcher
	guard    *resilience.Guard
	penalty  *resilience.Penalty[K]
	inst     *observe.Instrumentation
	logger   observe.Logger
	stats    counters

	// background disposal after expiry or capacity eviction
	bgMu      sync.Mutex
	bgClosed  bool
	bg        sync.WaitGroup
	stopEvict func()

	closeOnce sync.Once
}

// New creates a cache that fills itself with create.
func New[K comparable, V any](create func(ctx context.Context, key K) (V, error), opts ...Option) (*Cache[K, V], error) {
	if create == nil {
		return nil, ErrNilCreator
	}

	s := settings{
		meta:   observe.CacheMeta{Name: "cache"},
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	if err := s.meta.Validate(); err != nil {
		return nil, err
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}

	c := &Cache[K, V]{
		meta:     s.meta,
		create:   create,
		validate: rejectNilKey[K],
		policy:   s.policy,
		inflight: make(map[K]*flight[V]),
		dispatch: s.dispatcher,
		guard:    s.guard,
		inst:     s.inst,
	}

	if s.disposer != nil {
		fn, ok := s.disposer.(func(context.Context, K, V) error)
		if !ok {
			return nil, fmt.Errorf("%w: disposer %T", ErrOptionType, s.disposer)
		}
		c.dispose = fn
	}
	if s.validator != nil {
		fn, ok := s.validator.(func(K) error)
		if !ok {
			return nil, fmt.Errorf("%w: key validator %T", ErrOptionType, s.validator)
		}
		c.validate = fn
	}
	if s.penalty != nil {
		p, ok := s.penalty.(*resilience.Penalty[K])
		if !ok {
			return nil, fmt.Errorf("%w: penalty %T", ErrOptionType, s.penalty)
		}
		c.penalty = p
	}

	if c.dispatch == nil {
		c.dispatch = SyncDispatcher{}
	}
	if c.inst == nil {
		c.inst = observe.NopInstrumentation()
	}
	if s.logger != nil {
		c.logger = s.logger.WithCache(c.meta)
	} else {
		c.logger = c.inst.Logger(c.meta)
	}

	storeOpts := []ttlcache.Option[K, *entry[V]]{
		ttlcache.WithTTL[K, *entry[V]](c.policy.TTL),
	}
	if c.policy.Capacity > 0 {
		storeOpts = append(storeOpts, ttlcache.WithCapacity[K, *entry[V]](c.policy.Capacity))
	}
	if !c.policy.Sliding {
		storeOpts = append(storeOpts, ttlcache.WithDisableTouchOnHit[K, *entry[V]]())
	}
	c.store = ttlcache.New(storeOpts...)
	c.stopEvict = c.store.OnEviction(c.evicted)

	if c.policy.Expires() {
		go c.store.Start()
	}

	return c, nil
}

// Name returns the cache identifier used in telemetry.
func (c *Cache[K, V]) Name() string {
	return c.meta.ID()
}

// Policy returns the cache's expiry policy.
func (c *Cache[K, V]) Policy() Policy {
	return c.policy
}

func (c *Cache[K, V]) checkKey(key K) error {
	err := c.validate(key)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidKey) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidKey, err)
}

// lookup returns the Present entry for key. touch refreshes a sliding TTL.
func (c *Cache[K, V]) lookup(key K, touch bool) (*entry[V], bool) {
	var item *ttlcache.Item[K, *entry[V]]
	if touch {
		item = c.store.Get(key)
	} else {
		item = c.store.Get(key, ttlcache.WithDisableTouchOnHit[K, *entry[V]]())
	}
	if item == nil {
		return nil, false
	}
	e := item.Value()
	if e.released.Load() {
		return nil, false
	}
	return e, true
}

// GetOrCreate returns the value for key, creating it if needed.
//
// ok is false when the creation this call ran or waited on failed; the
// failure itself goes to OnFailed subscribers. err is non-nil only for an
// invalid key, a closed cache, or ctx ending while waiting on another
// caller's creation.
func (c *Cache[K, V]) GetOrCreate(ctx context.Context, key K) (value V, ok bool, err error) {
	if err := c.checkKey(key); err != nil {
		return value, false, err
	}

	if e, found := c.lookup(key, true); found {
		c.hit(ctx)
		return e.value, true, nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return value, false, ErrClosed
	}
	if e, found := c.lookup(key, true); found {
		c.mu.Unlock()
		c.hit(ctx)
		return e.value, true, nil
	}
	if f, found := c.inflight[key]; found {
		c.mu.Unlock()
		c.stats.joins.Add(1)
		c.inst.Lookup(ctx, c.meta, observe.OutcomeJoin)
		c.logger.Debug(ctx, "cache joined creation", observe.Field{Key: "cache.key", Value: keyString(key)})
		return f.wait(ctx)
	}
	f := newFlight[V]()
	c.inflight[key] = f
	c.pending.Add(1)
	c.mu.Unlock()

	c.stats.misses.Add(1)
	c.inst.Lookup(ctx, c.meta, observe.OutcomeMiss)
	c.logger.Debug(ctx, "cache miss", observe.Field{Key: "cache.key", Value: keyString(key)})

	return c.own(ctx, key, f)
}

func (c *Cache[K, V]) hit(ctx context.Context) {
	c.stats.hits.Add(1)
	c.inst.Lookup(ctx, c.meta, observe.OutcomeHit)
}

// own runs the creation for a flight this goroutine registered.
func (c *Cache[K, V]) own(ctx context.Context, key K, f *flight[V]) (V, bool, error) {
	ctx = context.WithoutCancel(ctx)
	value, err := c.run(ctx, key)

	c.mu.Lock()
	delete(c.inflight, key)
	if err == nil {
		// An expired value may linger until the sweeper collects it. Delete
		// hands it to the eviction path so it is disposed, not overwritten.
		c.store.Delete(key)
		c.store.Set(key, &entry[V]{value: value}, ttlcache.DefaultTTL)
	}
	c.mu.Unlock()
	c.pending.Done()

	f.finish(value, err)

	if err != nil {
		c.stats.failed.Add(1)
		c.notifyFailed(ctx, key, err)
		var zero V
		return zero, false, nil
	}

	c.stats.created.Add(1)
	c.notifyCreated(ctx, key, value)
	return value, true, nil
}

// run invokes the creator through the penalty check, the guard and the
// instrumentation.
func (c *Cache[K, V]) run(ctx context.Context, key K) (V, error) {
	var value V
	err := c.inst.Create(ctx, c.meta, keyString(key), func(ctx context.Context) error {
		if err := c.penalty.Check(key); err != nil {
			return err
		}
		err := c.guard.Execute(ctx, func(ctx context.Context) error {
			v, err := c.invoke(ctx, key)
			if err == nil {
				value = v
			}
			return err
		})
		if blamesKey(err) {
			c.penalty.Record(key, err)
		}
		return err
	})
	return value, err
}

func (c *Cache[K, V]) invoke(ctx context.Context, key K) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCreatorPanic, r)
		}
	}()
	return c.create(ctx, key)
}

// blamesKey reports whether err says something about the key itself rather
// than about shared capacity.
func blamesKey(err error) bool {
	return !errors.Is(err, resilience.ErrCircuitOpen) &&
		!errors.Is(err, resilience.ErrRateLimitExceeded) &&
		!errors.Is(err, resilience.ErrBulkheadFull)
}

// TryGetValue returns the Present value for key without creating one.
func (c *Cache[K, V]) TryGetValue(key K) (V, bool) {
	var zero V
	if c.validate(key) != nil {
		return zero, false
	}
	e, ok := c.lookup(key, true)
	if !ok {
		return zero, false
	}
	return e.value, true
}

// Contains reports whether key has a Present value. It does not refresh a
// sliding TTL.
func (c *Cache[K, V]) Contains(key K) bool {
	if c.validate(key) != nil {
		return false
	}
	_, ok := c.lookup(key, false)
	return ok
}

// Len returns the number of stored values. Under concurrent mutation the
// result may already be stale when it is returned.
func (c *Cache[K, V]) Len() int {
	return c.store.Len()
}

// All iterates over a snapshot of the Present values. Mutating the cache
// while iterating is allowed and does not affect the snapshot.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	items := c.store.Items()
	return func(yield func(K, V) bool) {
		for k, item := range items {
			if item.IsExpired() {
				continue
			}
			e := item.Value()
			if e.released.Load() {
				continue
			}
			if !yield(k, e.value) {
				return
			}
		}
	}
}

// Keys returns the keys of all Present values.
func (c *Cache[K, V]) Keys() []K {
	var keys []K
	for k := range c.All() {
		keys = append(keys, k)
	}
	return keys
}

// Remove removes the value for key and disposes it. It reports whether a
// value was present. The disposer error, if any, is returned.
func (c *Cache[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	if err := c.checkKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	e, ok := c.lookup(key, false)
	if ok && e.claim() {
		c.store.Delete(key)
	} else {
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}

	c.stats.removed.Add(1)
	c.inst.Evicted(ctx, c.meta, "removed", 1)
	return true, c.release(ctx, key, e.value)
}

// Clear removes and disposes every value. Every value is disposed even if
// some disposals fail; their errors are joined.
func (c *Cache[K, V]) Clear(ctx context.Context) error {
	return c.clear(ctx, "cleared")
}

func (c *Cache[K, V]) clear(ctx context.Context, reason string) error {
	type released struct {
		key   K
		value V
	}

	c.mu.Lock()
	items := c.store.Items()
	out := make([]released, 0, len(items))
	for k, item := range items {
		if e := item.Value(); e.claim() {
			out = append(out, released{key: k, value: e.value})
		}
	}
	c.store.DeleteAll()
	c.mu.Unlock()

	c.stats.removed.Add(uint64(len(out)))
	c.inst.Evicted(ctx, c.meta, reason, len(out))

	var errs []error
	for _, r := range out {
		if err := c.release(ctx, r.key, r.value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close clears the cache and stops it. Creations already running finish and
// are disposed with the rest; new ones fail with ErrClosed. Close waits for
// background disposals. Calls after the first return nil.
func (c *Cache[K, V]) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		err = c.shutdown(ctx)
	})
	return err
}

func (c *Cache[K, V]) shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.pending.Wait()
	err := c.clear(ctx, "closed")

	if c.policy.Expires() {
		c.store.Stop()
	}
	c.stopEvict()

	c.bgMu.Lock()
	c.bgClosed = true
	c.bgMu.Unlock()
	c.bg.Wait()

	c.logger.Debug(ctx, "cache closed")
	return errors.Join(err, c.dispatch.Close(ctx))
}

// evicted handles values the store dropped on its own.
func (c *Cache[K, V]) evicted(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[K, *entry[V]]) {
	e := item.Value()
	if !e.claim() {
		return // Remove, Clear or Close already own it
	}
	key := item.Key()

	c.stats.evicted.Add(1)
	c.inst.Evicted(context.Background(), c.meta, evictionReason(reason), 1)

	c.background(func() {
		_ = c.release(context.Background(), key, e.value)
	})
}

func (c *Cache[K, V]) background(fn func()) {
	c.bgMu.Lock()
	if c.bgClosed {
		c.bgMu.Unlock()
		fn()
		return
	}
	c.bg.Add(1)
	c.bgMu.Unlock()

	go func() {
		defer c.bg.Done()
		fn()
	}()
}

func evictionReason(r ttlcache.EvictionReason) string {
	switch r {
	case ttlcache.EvictionReasonCapacityReached:
		return "capacity"
	case ttlcache.EvictionReasonExpired, ttlcache.EvictionReasonDeleted:
		// Deleted only reaches here for an expired value being replaced.
		return "expired"
	default:
		return "evicted"
	}
}

// release runs the disposer for a value that left the cache.
func (c *Cache[K, V]) release(ctx context.Context, key K, value V) error {
	if c.dispose == nil {
		return nil
	}
	if err := c.dispose(ctx, key, value); err != nil {
		c.logger.Error(ctx, "cache dispose failed",
			observe.Field{Key: "cache.key", Value: keyString(key)},
			observe.Field{Key: "error", Value: err},
		)
		return fmt.Errorf("%w: key %v: %w", ErrDisposeFailed, key, err)
	}
	return nil
}

func keyString[K comparable](key K) string {
	if s, ok := any(key).(string); ok {
		return s
	}
	return fmt.Sprint(key)
}
