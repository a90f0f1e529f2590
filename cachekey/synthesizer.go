package cachekey

// Synthesizer builds cache keys from descriptors.
//
// Contract:
// - Determinism: identical descriptor content, snapshot, template and args
// always produce the same key, regardless of map iteration order.
// - Concurrency: safe for concurrent use; it holds no mutable state.
// - Errors: none. Inputs that cannot or must not be cached report ok=false.
type Synthesizer struct {
	policy Policy
}

// NewSynthesizer creates a synthesizer that falls back to the policy's
// template when a call passes none.
func NewSynthesizer(policy Policy) *Synthesizer {
	return &Synthesizer{policy: policy}
}

// Policy returns the synthesizer's key policy.
func (s *Synthesizer) Policy() Policy {
	return s.policy
}

// Synthesize returns the cache key for d.
//
// Raw descriptors are returned verbatim. A Query with a non-retrieval
// operation, an input that cannot be serialized, or a template that expands
// to an invalid key returns ok=false: the caller must skip caching.
func (s *Synthesizer) Synthesize(d Descriptor, snap Snapshot, tmpl Template, args ...any) (key string, ok bool) {
	var (
		content map[string]any
		baseKey string
	)

	switch d := d.(type) {
	case Raw:
		return string(d), true
	case Query:
		if !IsRetrieval(d.Operation) {
			return "", false
		}
		content, baseKey = d.content(), d.Entity
	case ServiceCall:
		content, baseKey = d.content(), d.baseKey()
	case Object:
		content, baseKey = d.content(), "object"
	default:
		return "", false
	}

	hash, err := ContentHash(content)
	if err != nil {
		return "", false
	}

	if tmpl == "" {
		tmpl = s.policy.KeyTemplate()
	}
	key = tmpl.Expand(Vars{
		Snapshot: snap,
		Hash:     hash,
		BaseKey:  baseKey,
		Args:     args,
	})
	if ValidateKey(key) != nil {
		return "", false
	}
	return key, true
}

// Hash returns the content hash of a non-raw descriptor.
func Hash(d Descriptor) (string, bool) {
	var content map[string]any
	switch d := d.(type) {
	case Query:
		content = d.content()
	case ServiceCall:
		content = d.content()
	case Object:
		content = d.content()
	default:
		return "", false
	}
	hash, err := ContentHash(content)
	if err != nil {
		return "", false
	}
	return hash, true
}
