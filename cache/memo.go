package cache

import (
	"context"
	"errors"
)

type memoInputKey struct{}

type memoInput[I any] struct{ value I }

// Memo caches the results of a function of arbitrary JSON-encodable input.
//
// Inputs are turned into string keys by a Keyer, so two inputs with the
// same canonical form share one result. All cache semantics apply: one
// call of fn per key at a time, failures are not stored, OnFailed
// subscribers on Cache() see the errors.
type Memo[I, V any] struct {
	namespace string
	keyer     Keyer
	fn        func(context.Context, I) (V, error)
	cache     *Cache[string, V]
}

// MemoOption configures a Memo.
type MemoOption func(*memoSettings)

type memoSettings struct {
	keyer     Keyer
	cacheOpts []Option
}

// WithKeyer replaces DefaultKeyer.
func WithKeyer(k Keyer) MemoOption {
	return func(s *memoSettings) { s.keyer = k }
}

// WithCacheOptions passes options to the underlying cache.
func WithCacheOptions(opts ...Option) MemoOption {
	return func(s *memoSettings) { s.cacheOpts = append(s.cacheOpts, opts...) }
}

// NewMemo wraps fn. namespace separates the keys of different functions
// that share a keyer and also names the underlying cache.
func NewMemo[I, V any](namespace string, fn func(ctx context.Context, input I) (V, error), opts ...MemoOption) (*Memo[I, V], error) {
	if fn == nil {
		return nil, ErrNilCreator
	}

	s := memoSettings{keyer: NewDefaultKeyer()}
	for _, opt := range opts {
		opt(&s)
	}

	m := &Memo[I, V]{
		namespace: namespace,
		keyer:     s.keyer,
		fn:        fn,
	}

	cacheOpts := append([]Option{
		WithName(namespace),
		WithKeyValidator(ValidateStringKey),
	}, s.cacheOpts...)

	c, err := New(m.create, cacheOpts...)
	if err != nil {
		return nil, err
	}
	m.cache = c
	return m, nil
}

// create runs fn with the input carried by the owning caller's context.
// Every caller that joins the same key has an input with the same
// canonical form, so whichever input arrives first is as good as any.
func (m *Memo[I, V]) create(ctx context.Context, _ string) (V, error) {
	in, ok := ctx.Value(memoInputKey{}).(memoInput[I])
	if !ok {
		var zero V
		return zero, errors.New("cache: memo input missing from context")
	}
	return m.fn(ctx, in.value)
}

// Key returns the cache key for input.
func (m *Memo[I, V]) Key(input I) (string, error) {
	return m.keyer.Key(m.namespace, input)
}

// Call returns the memoized result for input, computing it if needed.
// It follows Cache.GetOrCreate semantics.
func (m *Memo[I, V]) Call(ctx context.Context, input I) (V, bool, error) {
	key, err := m.Key(input)
	if err != nil {
		var zero V
		return zero, false, err
	}
	return m.cache.GetOrCreate(context.WithValue(ctx, memoInputKey{}, memoInput[I]{value: input}), key)
}

// Forget drops the memoized result for input.
func (m *Memo[I, V]) Forget(ctx context.Context, input I) (bool, error) {
	key, err := m.Key(input)
	if err != nil {
		return false, err
	}
	return m.cache.Remove(ctx, key)
}

// Cache returns the underlying cache for subscriptions, stats and removal.
func (m *Memo[I, V]) Cache() *Cache[string, V] {
	return m.cache
}

// Close closes the underlying cache.
func (m *Memo[I, V]) Close(ctx context.Context) error {
	return m.cache.Close(ctx)
}
