package health

import (
	"context"
	"errors"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestStoreChecker(t *testing.T) {
	errDown := errors.New("connection refused")
	tests := []struct {
		name string
		ping error
		want Status
	}{
		{"reachable", nil, StatusHealthy},
		{"ping fails", errDown, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStoreChecker(pingFunc(func(context.Context) error { return tt.ping }))
			r := c.Check(context.Background())
			if c.Name() != "store" {
				t.Errorf("Name() = %q", c.Name())
			}
			if r.Status != tt.want {
				t.Errorf("Status = %v, want %v", r.Status, tt.want)
			}
			if tt.ping != nil && !errors.Is(r.Error, tt.ping) {
				t.Errorf("Error = %v, want %v", r.Error, tt.ping)
			}
		})
	}
}

func TestStoreChecker_CancelledContext(t *testing.T) {
	called := false
	c := NewStoreChecker(pingFunc(func(context.Context) error {
		called = true
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if r := c.Check(ctx); r.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", r.Status)
	}
	if called {
		t.Error("Ping called with cancelled context")
	}
}

func TestStoreChecker_WrapsCheckFailed(t *testing.T) {
	c := NewStoreChecker(pingFunc(func(context.Context) error { return errors.New("timeout") }))
	if r := c.Check(context.Background()); !errors.Is(r.Error, ErrCheckFailed) {
		t.Errorf("Error = %v, want ErrCheckFailed", r.Error)
	}
}
