package cache

import "context"

// flight is one in-progress creation. Joiners block on done; the owner
// writes value and err before closing it.
type flight[V any] struct {
	done  chan struct{}
	value V
	err   error
}

func newFlight[V any]() *flight[V] {
	return &flight[V]{done: make(chan struct{})}
}

func (f *flight[V]) finish(value V, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// wait blocks until the owner finishes or ctx ends.
func (f *flight[V]) wait(ctx context.Context) (V, bool, error) {
	var zero V
	select {
	case <-f.done:
		if f.err != nil {
			return zero, false, nil
		}
		return f.value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}
