package cache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Warm creates values for keys with at most limit creations in parallel.
// A limit of zero or less means no limit.
//
// Warm returns the first key validation or closed-cache error and stops
// scheduling further keys. Creation failures are reported through OnFailed
// only.
func (c *Cache[K, V]) Warm(ctx context.Context, keys []K, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, key := range keys {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, _, err := c.GetOrCreate(gctx, key)
			return err
		})
	}

	return g.Wait()
}
