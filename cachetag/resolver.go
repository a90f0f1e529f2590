package cachetag

import (
	"bytes"
	"reflect"
	"strings"

	"github.com/goccy/go-json"

	"github.com/jonwraymond/cachestats/cachekey"
)

// Resolver turns tag descriptors into concrete tags.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: none. Descriptors that cannot produce a value contribute nothing.
type Resolver struct{}

// NewResolver creates a new tag resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the tags for payload and params, deduplicated (case
// sensitive) and ordered by first occurrence.
func (r *Resolver) Resolve(descs []Descriptor, payload any, params map[string]any) []string {
	tags := newTagSet()
	for _, d := range descs {
		switch d.Kind {
		case KindLiteral:
			if d.Value != "" {
				tags.add(d.wrap(d.Value))
			}
		case KindTemplate:
			tags.add(d.wrap(expandTemplate(d.Template, payload, params)))
		case KindDataField:
			for _, el := range elements(payload) {
				if v, ok := extract(el, d.Fields, d.separator()); ok {
					tags.add(d.wrap(v))
				}
			}
		case KindParamField:
			if v, ok := extract(params, d.Fields, d.separator()); ok {
				tags.add(d.wrap(v))
			}
		}
	}
	return tags.list
}

// expandTemplate hashes {payload, params} together and reads the context
// placeholders from params.
func expandTemplate(tmpl cachekey.Template, payload any, params map[string]any) string {
	hash, err := cachekey.ContentHash(map[string]any{
		"payload": payload,
		"params":  params,
	})
	if err != nil {
		hash = ""
	}
	return tmpl.Expand(cachekey.Vars{
		Snapshot: cachekey.Snapshot{
			Tenant: stringParam(params, "tenant"),
			User:   stringParam(params, "user"),
			Locale: stringParam(params, "locale"),
		},
		Hash:    hash,
		BaseKey: stringParam(params, "baseKey"),
	})
}

func stringParam(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}

// elements fans a payload out into its elements. Slices and arrays yield
// their items; anything else is a single element.
func elements(payload any) []any {
	if payload == nil {
		return nil
	}
	if items, ok := payload.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(payload)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{payload}
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return []any{payload}
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// extract reads fields from v and joins the present ones with sep.
// It reports false when none of the fields are present.
func extract(v any, fields []string, sep string) (string, bool) {
	m := asMap(v)
	if m == nil || len(fields) == 0 {
		return "", false
	}

	values := make([]string, 0, len(fields))
	for _, f := range fields {
		raw, ok := lookup(m, f)
		if !ok || raw == nil {
			continue
		}
		s := cachekey.FormatArg(raw)
		if s == "" {
			continue
		}
		values = append(values, s)
	}
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, sep), true
}

// lookup resolves a field name, trying the literal name before treating dots
// as a nested path.
func lookup(m map[string]any, field string) (any, bool) {
	if v, ok := m[field]; ok {
		return v, true
	}
	if !strings.Contains(field, ".") {
		return nil, false
	}
	var cur any = m
	for _, part := range strings.Split(field, ".") {
		next := asMap(cur)
		if next == nil {
			return nil, false
		}
		v, ok := next[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// asMap views v as a string-keyed map. Structs are read through their JSON
// shape so json tags name the fields; numbers keep their literal text.
func asMap(v any) map[string]any {
	switch m := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
	default:
		return nil
	}

	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

type tagSet struct {
	seen map[string]struct{}
	list []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: make(map[string]struct{}), list: []string{}}
}

func (s *tagSet) add(tag string) {
	if tag == "" {
		return
	}
	if _, ok := s.seen[tag]; ok {
		return
	}
	s.seen[tag] = struct{}{}
	s.list = append(s.list, tag)
}
