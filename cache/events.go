package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/cubekit/cube/observe"
)

// Dispatcher delivers creation outcomes to subscribers.
//
// Contract:
//   - Concurrency: Dispatch may be called from many goroutines at once.
//   - Ordering: deliveries handed to one Dispatch call run in order.
//   - Close: after Close returns, Dispatch must still deliver.
type Dispatcher interface {
	// Dispatch arranges for deliver to run.
	Dispatch(ctx context.Context, deliver func(context.Context))

	// Close stops background delivery, draining anything queued.
	Close(ctx context.Context) error
}

// SyncDispatcher runs deliveries inline on the creating goroutine. A
// subscriber panic propagates to the caller of GetOrCreate that ran the
// creation, after the outcome was stored and waiting callers released.
type SyncDispatcher struct{}

func (SyncDispatcher) Dispatch(ctx context.Context, deliver func(context.Context)) { deliver(ctx) }

func (SyncDispatcher) Close(context.Context) error { return nil }

type queued struct {
	ctx     context.Context
	deliver func(context.Context)
}

// QueueDispatcher runs deliveries in FIFO order on a dedicated goroutine,
// so slow subscribers never hold up GetOrCreate callers. Subscriber panics
// are recovered and logged.
type QueueDispatcher struct {
	logger observe.Logger

	mu      sync.Mutex
	queue   []queued
	closed  bool
	stopped bool // queue drained after close

	wake chan struct{}
	done chan struct{}
}

// NewQueueDispatcher starts a dispatcher. A nil logger discards panics.
func NewQueueDispatcher(logger observe.Logger) *QueueDispatcher {
	if logger == nil {
		logger = observe.NopLogger()
	}
	d := &QueueDispatcher{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch queues deliver. Deliveries made while Close is draining are
// queued behind the pending ones; once the drain finishes deliver runs
// inline.
func (d *QueueDispatcher) Dispatch(ctx context.Context, deliver func(context.Context)) {
	ctx = context.WithoutCancel(ctx)

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.deliver(ctx, deliver)
		return
	}
	d.queue = append(d.queue, queued{ctx: ctx, deliver: deliver})
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close drains the queue and stops the goroutine. It returns ctx.Err() if
// ctx ends first; the drain still completes in the background.
func (d *QueueDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *QueueDispatcher) run() {
	defer close(d.done)

	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		if len(batch) == 0 && d.closed {
			d.stopped = true
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		if len(batch) == 0 {
			<-d.wake
			continue
		}
		for _, q := range batch {
			d.deliver(q.ctx, q.deliver)
		}
	}
}

func (d *QueueDispatcher) deliver(ctx context.Context, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, "cache subscriber panicked", observe.Field{Key: "panic", Value: fmt.Sprint(r)})
		}
	}()
	fn(ctx)
}

type subscription[F any] struct {
	id uint64
	fn F
}

// registry holds subscribers. Lists are copied on write so delivery works
// on a stable snapshot.
type registry[K comparable, V any] struct {
	mu      sync.RWMutex
	nextID  uint64
	created []subscription[func(context.Context, K, V)]
	failed  []subscription[func(context.Context, K, error)]
}

func subscribe[F any](mu *sync.RWMutex, nextID *uint64, list *[]subscription[F], fn F) func() {
	mu.Lock()
	*nextID++
	id := *nextID
	next := make([]subscription[F], len(*list), len(*list)+1)
	copy(next, *list)
	*list = append(next, subscription[F]{id: id, fn: fn})
	mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			kept := make([]subscription[F], 0, len(*list))
			for _, s := range *list {
				if s.id != id {
					kept = append(kept, s)
				}
			}
			*list = kept
		})
	}
}

func (r *registry[K, V]) onCreated(fn func(context.Context, K, V)) func() {
	return subscribe(&r.mu, &r.nextID, &r.created, fn)
}

func (r *registry[K, V]) onFailed(fn func(context.Context, K, error)) func() {
	return subscribe(&r.mu, &r.nextID, &r.failed, fn)
}

func (r *registry[K, V]) createdSubscribers() []subscription[func(context.Context, K, V)] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.created
}

func (r *registry[K, V]) failedSubscribers() []subscription[func(context.Context, K, error)] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failed
}

// OnCreated subscribes fn to successful creations. fn is called exactly
// once per stored value, after it became visible. The returned function
// unsubscribes and may be called more than once.
func (c *Cache[K, V]) OnCreated(fn func(ctx context.Context, key K, value V)) func() {
	return c.events.onCreated(fn)
}

// OnFailed subscribes fn to failed creations. fn is called exactly once per
// failed creation, after waiting callers were released.
func (c *Cache[K, V]) OnFailed(fn func(ctx context.Context, key K, err error)) func() {
	return c.events.onFailed(fn)
}

func (c *Cache[K, V]) notifyCreated(ctx context.Context, key K, value V) {
	subs := c.events.createdSubscribers()
	if len(subs) == 0 {
		return
	}
	c.dispatch.Dispatch(ctx, func(ctx context.Context) {
		for _, s := range subs {
			s.fn(ctx, key, value)
		}
	})
}

func (c *Cache[K, V]) notifyFailed(ctx context.Context, key K, err error) {
	subs := c.events.failedSubscribers()
	if len(subs) == 0 {
		return
	}
	c.dispatch.Dispatch(ctx, func(ctx context.Context) {
		for _, s := range subs {
			s.fn(ctx, key, err)
		}
	})
}

var (
	_ Dispatcher = SyncDispatcher{}
	_ Dispatcher = (*QueueDispatcher)(nil)
)
