package observe_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/cubekit/cube/observe"
)

func ExampleNewObserver() {
	obs, err := observe.NewObserver(context.Background(), observe.Config{
		ServiceName: "inventory",
		Version:     "1.2.0",
		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "none"},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer obs.Shutdown(context.Background())

	in, err := observe.InstrumentationFromObserver(obs)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("instrumentation ready:", in != nil)
	// Output:
	// instrumentation ready: true
}

func ExampleConfig_Validate() {
	cfg := observe.Config{
		ServiceName: "inventory",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "zipkin"},
	}
	err := cfg.Validate()
	fmt.Println(errors.Is(err, observe.ErrInvalidTracingExporter))
	// Output:
	// true
}

func ExampleCacheMeta_SpanName() {
	meta := observe.CacheMeta{Namespace: "users", Name: "profiles"}
	fmt.Println(meta.ID())
	fmt.Println(meta.SpanName("create"))
	// Output:
	// users.profiles
	// cache.create.users.profiles
}

func ExampleParseLogLevel() {
	fmt.Println(observe.ParseLogLevel("warn"))
	fmt.Println(observe.ParseLogLevel("unknown"))
	// Output:
	// warn
	// info
}
