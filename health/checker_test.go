package health

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
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
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResult_JSON(t *testing.T) {
	r := Unhealthy("store ping failed", errors.New("dial tcp: refused")).WithDuration(time.Millisecond)
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["status"] != "unhealthy" {
		t.Errorf("status = %v, want unhealthy", got["status"])
	}
	if _, ok := got["Error"]; ok {
		t.Error("Error should not be serialized")
	}
}

func TestResultConstructors(t *testing.T) {
	testErr := errors.New("boom")
	tests := []struct {
		name   string
		result Result
		status Status
	}{
		{"healthy", Healthy("ok"), StatusHealthy},
		{"degraded", Degraded("slow"), StatusDegraded},
		{"unhealthy", Unhealthy("down", testErr), StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should not be zero")
			}
		})
	}
	if r := Unhealthy("down", testErr); r.Error != testErr {
		t.Errorf("Error = %v, want %v", r.Error, testErr)
	}
}

func TestResult_With(t *testing.T) {
	r := Healthy("ok").WithDetails(map[string]any{"keys": 3}).WithDuration(100 * time.Millisecond)
	if r.Details["keys"] != 3 || r.Duration != 100*time.Millisecond {
		t.Errorf("result = %+v", r)
	}
}

func TestCheckerFunc(t *testing.T) {
	checker := NewCheckerFunc("ctx-checker", func(ctx context.Context) Result {
		if ctx.Err() != nil {
			return Unhealthy("cancelled", ctx.Err())
		}
		return Healthy("ok")
	})
	if checker.Name() != "ctx-checker" {
		t.Errorf("Name() = %v", checker.Name())
	}
	if got := checker.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("Status = %v, want healthy", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := checker.Check(ctx).Status; got != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got)
	}
}
