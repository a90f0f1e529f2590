package metrics

// KeyMetadata describes what a tracked key caches.
type KeyMetadata struct {
	DataType string `json:"data_type,omitempty"`
	Service  string `json:"service,omitempty"`
	Entity   string `json:"entity,omitempty"`
	Tenant   string `json:"tenant,omitempty"`
	User     string `json:"user,omitempty"`
	Locale   string `json:"locale,omitempty"`
	Context  string `json:"context,omitempty"`
	Query    string `json:"query,omitempty"`
	Subject  string `json:"subject,omitempty"`
}

// Merge returns m updated with every non-empty field of newer.
// Empty fields in newer keep the value already in m.
func (m KeyMetadata) Merge(newer KeyMetadata) KeyMetadata {
	pick := func(old, v string) string {
		if v != "" {
			return v
		}
		return old
	}
	return KeyMetadata{
		DataType: pick(m.DataType, newer.DataType),
		Service:  pick(m.Service, newer.Service),
		Entity:   pick(m.Entity, newer.Entity),
		Tenant:   pick(m.Tenant, newer.Tenant),
		User:     pick(m.User, newer.User),
		Locale:   pick(m.Locale, newer.Locale),
		Context:  pick(m.Context, newer.Context),
		Query:    pick(m.Query, newer.Query),
		Subject:  pick(m.Subject, newer.Subject),
	}
}

// IsZero reports whether every field is empty.
func (m KeyMetadata) IsZero() bool {
	return m == KeyMetadata{}
}
