package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})
	cfg := r.Config()

	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", cfg.Multiplier)
	}
	if cfg.RetryIf == nil {
		t.Error("RetryIf should default to non-nil")
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ExhaustedReturnsLastError(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 4, InitialDelay: time.Millisecond})

	attempts := 0
	lastErr := errors.New("attempt 4")
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 4 {
			return lastErr
		}
		return errors.New("earlier")
	})

	if !errors.Is(err, lastErr) {
		t.Errorf("Execute() error = %v, want %v", err, lastErr)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"penalized", ErrPenalized},
		{"canceled", context.Canceled},
		{"wrapped penalized", errors.Join(errors.New("key a"), ErrPenalized)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetry(RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond})

			attempts := 0
			err := r.Execute(context.Background(), func(ctx context.Context) error {
				attempts++
				return tt.err
			})

			if !errors.Is(err, tt.err) {
				t.Errorf("Execute() error = %v, want %v", err, tt.err)
			}
			if attempts != 1 {
				t.Errorf("attempts = %d, want 1", attempts)
			}
		})
	}
}

func TestRetry_CustomRetryIf(t *testing.T) {
	permanent := errors.New("permanent")
	r := NewRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		RetryIf:      func(err error) bool { return !errors.Is(err, permanent) },
	})

	attempts := 0
	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return permanent
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var calls []int
	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Strategy:     BackoffConstant,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			calls = append(calls, attempt)
			if delay != time.Millisecond {
				t.Errorf("delay = %v, want 1ms", delay)
			}
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	})

	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", calls)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	opErr := errors.New("fail")

	done := make(chan error, 1)
	go func() {
		done <- r.Execute(ctx, func(ctx context.Context) error { return opErr })
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if !errors.Is(err, opErr) {
			t.Errorf("error = %v, want it to keep the operation error", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
}

func TestBackoff_Delay(t *testing.T) {
	tests := []struct {
		name    string
		backoff Backoff
		n       int
		want    time.Duration
	}{
		{"exponential first", Backoff{InitialDelay: 100 * time.Millisecond, Multiplier: 2}, 1, 100 * time.Millisecond},
		{"exponential third", Backoff{InitialDelay: 100 * time.Millisecond, Multiplier: 2}, 3, 400 * time.Millisecond},
		{"exponential capped", Backoff{InitialDelay: time.Second, Multiplier: 10, MaxDelay: 5 * time.Second}, 4, 5 * time.Second},
		{"exponential huge capped", Backoff{InitialDelay: time.Second, Multiplier: 10, MaxDelay: time.Minute}, 200, time.Minute},
		{"linear", Backoff{Strategy: BackoffLinear, InitialDelay: 10 * time.Millisecond}, 3, 30 * time.Millisecond},
		{"constant", Backoff{Strategy: BackoffConstant, InitialDelay: 10 * time.Millisecond}, 7, 10 * time.Millisecond},
		{"zero n treated as first", Backoff{Strategy: BackoffLinear, InitialDelay: 10 * time.Millisecond}, 0, 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.backoff.Delay(tt.n); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestBackoff_JitterBounded(t *testing.T) {
	b := Backoff{Strategy: BackoffConstant, InitialDelay: 100 * time.Millisecond, Jitter: true}

	for range 100 {
		d := b.Delay(1)
		if d < 100*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("Delay() = %v, want within [100ms, 125ms)", d)
		}
	}
}

func TestBackoffStrategy_String(t *testing.T) {
	if BackoffLinear.String() != "linear" {
		t.Errorf("String() = %q", BackoffLinear.String())
	}
	if BackoffStrategy(42).String() != "unknown" {
		t.Errorf("String() = %q", BackoffStrategy(42).String())
	}
}
