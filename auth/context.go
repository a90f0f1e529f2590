package auth

import (
	"context"

	"github.com/jonwraymond/cachestats/cachekey"
)

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a new context with the given identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// SnapshotFromContext is SnapshotFromIdentity(IdentityFromContext(ctx)).
// The caller still passes the result explicitly to the engine.
func SnapshotFromContext(ctx context.Context) cachekey.Snapshot {
	return SnapshotFromIdentity(IdentityFromContext(ctx))
}
