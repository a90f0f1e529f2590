package cachekey

// Descriptor describes the inputs of one cacheable call.
//
// The interface is sealed: the only implementations are Raw, Query,
// ServiceCall and Object, and Synthesize switches over them exhaustively.
type Descriptor interface {
	descriptor()
}

// Raw is a caller-built key. It bypasses hashing and templating entirely.
type Raw string

// Query is a structured data-access query.
type Query struct {
	// Entity is the queried collection or table; it is the query's {baseKey}.
	Entity string `json:"entity,omitempty"`

	// Operation is the query verb (find, findOne, count, insert, ...).
	// Only retrieval operations are cacheable. Empty means "find".
	Operation string `json:"operation,omitempty"`

	Selection []string       `json:"selection,omitempty"`
	Filter    map[string]any `json:"filter,omitempty"`
	Order     []string       `json:"order,omitempty"`
	Limit     int            `json:"limit,omitempty"`
	Offset    int            `json:"offset,omitempty"`

	// Key is a key attached to the query by an earlier synthesis.
	// It is never part of the content hash.
	Key string `json:"-"`
}

// ServiceCall describes a remote call routed to a service.
type ServiceCall struct {
	Method  string         `json:"method"`
	Path    string         `json:"path"`
	Params  map[string]any `json:"params,omitempty"`
	Payload any            `json:"payload,omitempty"`
	Target  string         `json:"target,omitempty"`
}

// Object is an arbitrary value hashed by its canonical serialization.
type Object struct {
	Value any
}

func (Raw) descriptor()         {}
func (Query) descriptor()       {}
func (ServiceCall) descriptor() {}
func (Object) descriptor()      {}

// content returns the hashed fields of q. Key is deliberately absent.
func (q Query) content() map[string]any {
	return map[string]any{
		"kind":      "query",
		"entity":    q.Entity,
		"operation": normalizeOperation(q.Operation),
		"selection": stringsToAny(q.Selection),
		"filter":    q.Filter,
		"order":     stringsToAny(q.Order),
		"limit":     q.Limit,
		"offset":    q.Offset,
	}
}

func (c ServiceCall) content() map[string]any {
	return map[string]any{
		"kind":    "service",
		"method":  c.Method,
		"path":    c.Path,
		"params":  c.Params,
		"payload": c.Payload,
		"target":  c.Target,
	}
}

func (o Object) content() map[string]any {
	return map[string]any{
		"kind":  "object",
		"value": o.Value,
	}
}

func (c ServiceCall) baseKey() string {
	if c.Target != "" {
		return c.Target
	}
	return c.Path
}

func stringsToAny(s []string) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
