package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatus_Worst(t *testing.T) {
	if got := StatusHealthy.Worst(StatusDegraded); got != StatusDegraded {
		t.Errorf("Worst() = %v, want degraded", got)
	}
	if got := StatusUnhealthy.Worst(StatusDegraded); got != StatusUnhealthy {
		t.Errorf("Worst() = %v, want unhealthy", got)
	}
}

func TestResultConstructors(t *testing.T) {
	errDown := errors.New("down")

	tests := []struct {
		name   string
		result Result
		status Status
	}{
		{"healthy", Healthy("ok"), StatusHealthy},
		{"degraded", Degraded("slow"), StatusDegraded},
		{"unhealthy", Unhealthy("down", errDown), StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should be set")
			}
		})
	}

	if r := Unhealthy("down", errDown); !errors.Is(r.Error, errDown) {
		t.Errorf("Error = %v, want %v", r.Error, errDown)
	}

	r := Healthy("ok").WithDetails(map[string]any{"entries": 3})
	if r.Details["entries"] != 3 {
		t.Errorf("Details = %v", r.Details)
	}
}

func TestCheckerFunc(t *testing.T) {
	c := NewCheckerFunc("probe", func(context.Context) Result { return Degraded("warming up") })

	if c.Name() != "probe" {
		t.Errorf("Name() = %q", c.Name())
	}
	if r := c.Check(context.Background()); r.Status != StatusDegraded || r.Message != "warming up" {
		t.Errorf("Check() = %+v", r)
	}
}
