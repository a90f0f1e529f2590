package cachekey

import "strings"

// Policy configures how keys are scoped to the request context.
type Policy struct {
	// TenantAware prefixes keys with {tenant}.
	TenantAware bool `yaml:"tenant_aware"`

	// UserAware prefixes keys with {user}.
	UserAware bool `yaml:"user_aware"`

	// LocaleAware prefixes keys with {locale}.
	LocaleAware bool `yaml:"locale_aware"`

	// Template overrides the template derived from the awareness flags.
	Template Template `yaml:"template"`
}

// DefaultPolicy returns a context-free policy whose template is "{hash}".
func DefaultPolicy() Policy {
	return Policy{}
}

// KeyTemplate returns the explicit template, or one derived from the
// awareness flags in the fixed order tenant, user, locale, always ending in
// {hash}.
func (p Policy) KeyTemplate() Template {
	if p.Template != "" {
		return p.Template
	}

	parts := make([]string, 0, 4)
	if p.TenantAware {
		parts = append(parts, "{tenant}")
	}
	if p.UserAware {
		parts = append(parts, "{user}")
	}
	if p.LocaleAware {
		parts = append(parts, "{locale}")
	}
	parts = append(parts, "{hash}")
	return Template(strings.Join(parts, ":"))
}
