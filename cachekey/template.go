package cachekey

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Template is a key pattern built from the placeholders {tenant}, {user},
// {locale}, {hash}, {baseKey} and {args[N]}.
//
// Unknown or malformed placeholders expand to the empty string so that a
// misconfigured template never fails the caller.
type Template string

// Vars holds the values a Template is expanded with.
type Vars struct {
	Snapshot Snapshot
	Hash     string
	BaseKey  string
	Args     []any
}

// Placeholders reports the placeholder names in t in order of appearance.
func (t Template) Placeholders() []string {
	var names []string
	s := string(t)
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			return names
		}
		names = append(names, s[open+1:open+end])
		s = s[open+end+1:]
	}
}

// Expand substitutes every placeholder in t.
func (t Template) Expand(v Vars) string {
	snap := v.Snapshot.WithDefaults()
	s := string(t)

	var b strings.Builder
	b.Grow(len(s) + len(v.Hash))
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			b.WriteString(s)
			break
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			// Unterminated brace is literal text.
			b.WriteString(s)
			break
		}
		b.WriteString(s[:open])
		b.WriteString(resolvePlaceholder(s[open+1:open+end], snap, v))
		s = s[open+end+1:]
	}
	return b.String()
}

func resolvePlaceholder(name string, snap Snapshot, v Vars) string {
	switch name {
	case "tenant":
		return snap.Tenant
	case "user":
		return snap.User
	case "locale":
		return snap.Locale
	case "hash":
		return v.Hash
	case "baseKey":
		return v.BaseKey
	}

	idx, ok := argIndex(name)
	if !ok || idx >= len(v.Args) {
		return ""
	}
	return FormatArg(v.Args[idx])
}

// argIndex parses "args[N]".
func argIndex(name string) (int, bool) {
	inner, ok := strings.CutPrefix(name, "args[")
	if !ok {
		return 0, false
	}
	inner, ok = strings.CutSuffix(inner, "]")
	if !ok || inner == "" {
		return 0, false
	}
	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// FormatArg serializes one positional argument for a key segment.
//
// Primitives stringify directly, slices and arrays recurse element-wise joined
// by ",", and anything else is replaced by its content hash so that distinct
// objects never collapse into the same segment.
func FormatArg(arg any) string {
	if arg == nil {
		return ""
	}

	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatArg(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
	}

	hash, err := ContentHash(arg)
	if err != nil {
		return ""
	}
	return hash
}

// formatFloat writes integral values without an exponent so 1234567.0
// renders as "1234567", the same as the integer would.
func formatFloat(f float64, bits int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
