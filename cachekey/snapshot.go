package cachekey

// Context defaults used whenever a Snapshot field is unset.
const (
	DefaultTenant = "global"
	DefaultUser   = "anonymous"
	DefaultLocale = "en"
)

// Snapshot is the ambient request context captured at call time.
//
// It is passed explicitly to every key, tag and recording call; the engine
// never reads it from global state.
type Snapshot struct {
	Tenant string `json:"tenant,omitempty"`
	User   string `json:"user,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// DefaultSnapshot returns {"global", "anonymous", "en"}.
func DefaultSnapshot() Snapshot {
	return Snapshot{Tenant: DefaultTenant, User: DefaultUser, Locale: DefaultLocale}
}

// WithDefaults fills every empty field with its default so that an absent
// context and an explicitly anonymous one produce the same key segment.
func (s Snapshot) WithDefaults() Snapshot {
	if s.Tenant == "" {
		s.Tenant = DefaultTenant
	}
	if s.User == "" {
		s.User = DefaultUser
	}
	if s.Locale == "" {
		s.Locale = DefaultLocale
	}
	return s
}
