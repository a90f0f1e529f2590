package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/cachestats/cachekey"
)

func TestSnapshotFromIdentity(t *testing.T) {
	tests := []struct {
		name string
		id   *Identity
		want cachekey.Snapshot
	}{
		{"nil", nil, cachekey.DefaultSnapshot()},
		{"empty", &Identity{}, cachekey.DefaultSnapshot()},
		{"full", &Identity{Principal: "u-1", TenantID: "acme", Locale: "ja"}, cachekey.Snapshot{Tenant: "acme", User: "u-1", Locale: "ja"}},
		{"tenant only", &Identity{TenantID: "acme"}, cachekey.Snapshot{Tenant: "acme", User: "anonymous", Locale: "en"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapshotFromIdentity(tt.id); got != tt.want {
				t.Errorf("SnapshotFromIdentity = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIdentity_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"no expiry", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"past", now.Add(-time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &Identity{ExpiresAt: tt.exp}
			if got := id.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentity_IsAnonymous(t *testing.T) {
	var nilID *Identity
	if !nilID.IsAnonymous() || !(&Identity{}).IsAnonymous() {
		t.Error("nil and empty identities should be anonymous")
	}
	if (&Identity{Principal: "u-1"}).IsAnonymous() {
		t.Error("identity with principal reported anonymous")
	}
}

func TestSnapshotFromContext(t *testing.T) {
	if got := SnapshotFromContext(context.Background()); got != cachekey.DefaultSnapshot() {
		t.Errorf("empty context snapshot = %+v", got)
	}

	ctx := WithIdentity(context.Background(), &Identity{Principal: "u-9", TenantID: "acme"})
	if got := IdentityFromContext(ctx); got == nil || got.Principal != "u-9" {
		t.Fatalf("IdentityFromContext = %+v", got)
	}
	want := cachekey.Snapshot{Tenant: "acme", User: "u-9", Locale: "en"}
	if got := SnapshotFromContext(ctx); got != want {
		t.Errorf("SnapshotFromContext = %+v, want %+v", got, want)
	}
}
