package health_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/cubekit/cube/cache"
	"github.com/cubekit/cube/health"
)

func ExampleNewCacheChecker() {
	ctx := context.Background()
	c, _ := cache.New(func(_ context.Context, id int) (string, error) {
		if id < 0 {
			return "", errors.New("negative id")
		}
		return fmt.Sprint(id), nil
	}, cache.WithName("users"))
	defer c.Close(ctx)

	for id := -4; id < 6; id++ {
		_, _, _ = c.GetOrCreate(ctx, id)
	}

	checker := health.NewCacheChecker(c, health.CacheCheckerConfig{MinAttempts: 5})
	r := checker.Check(ctx)
	fmt.Println(checker.Name(), r.Status, r.Message)
	// Output:
	// users degraded 40.0% of 10 creations failed
}

func ExampleAggregator_CheckAll() {
	agg := health.NewAggregator()
	agg.Register("db", health.NewCheckerFunc("db", func(context.Context) health.Result {
		return health.Healthy("connected")
	}))
	agg.Register("queue", health.NewCheckerFunc("queue", func(context.Context) health.Result {
		return health.Degraded("backlog growing")
	}))

	results := agg.CheckAll(context.Background())
	fmt.Println(health.OverallStatus(results))
	// Output:
	// degraded
}
