package auth

import (
	"time"

	"github.com/jonwraymond/cachestats/cachekey"
)

// Identity represents an authenticated principal.
type Identity struct {
	// Principal is the unique identifier (e.g., user ID, email).
	Principal string

	// TenantID is the tenant this identity belongs to.
	TenantID string

	// Locale is the preferred locale, if the token carried one.
	Locale string

	// Claims contains the raw claims from the token.
	Claims map[string]any

	// ExpiresAt is when this identity expires.
	ExpiresAt time.Time

	// IssuedAt is when the token was issued.
	IssuedAt time.Time
}

// IsExpired reports whether the identity expired before now.
func (id *Identity) IsExpired(now time.Time) bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return now.After(id.ExpiresAt)
}

// IsAnonymous returns true if no principal is set.
func (id *Identity) IsAnonymous() bool {
	return id == nil || id.Principal == ""
}

// SnapshotFromIdentity maps an identity onto a Snapshot. A nil identity
// yields the default snapshot; unset fields fall back to their defaults.
func SnapshotFromIdentity(id *Identity) cachekey.Snapshot {
	if id == nil {
		return cachekey.DefaultSnapshot()
	}
	return cachekey.Snapshot{
		Tenant: id.TenantID,
		User:   id.Principal,
		Locale: id.Locale,
	}.WithDefaults()
}
