package cachetag

import "github.com/jonwraymond/cachestats/cachekey"

// DefaultSeparator joins multi-field extractions.
const DefaultSeparator = ":"

// Kind selects how a Descriptor produces tags.
type Kind int

const (
	// KindLiteral emits Value.
	KindLiteral Kind = iota
	// KindTemplate expands Template against params and a content hash.
	KindTemplate
	// KindDataField extracts fields from each payload element.
	KindDataField
	// KindParamField extracts fields from the call parameters.
	KindParamField
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindTemplate:
		return "template"
	case KindDataField:
		return "data"
	case KindParamField:
		return "param"
	default:
		return "unknown"
	}
}

// Descriptor declares one source of tags.
type Descriptor struct {
	Kind Kind

	// Value is the tag emitted by KindLiteral.
	Value string

	// Template is expanded by KindTemplate.
	Template cachekey.Template

	// Fields are the field names read by KindDataField and KindParamField.
	// Dotted names address nested maps.
	Fields []string

	Prefix string
	Suffix string

	// Separator joins multiple extracted fields. Default: ":".
	Separator string
}

// Literal returns a descriptor emitting value.
func Literal(value string) Descriptor {
	return Descriptor{Kind: KindLiteral, Value: value}
}

// FromTemplate returns a descriptor expanding tmpl.
func FromTemplate(tmpl cachekey.Template) Descriptor {
	return Descriptor{Kind: KindTemplate, Template: tmpl}
}

// DataField returns a descriptor reading fields from the payload.
func DataField(fields ...string) Descriptor {
	return Descriptor{Kind: KindDataField, Fields: fields}
}

// ParamField returns a descriptor reading fields from the call parameters.
func ParamField(fields ...string) Descriptor {
	return Descriptor{Kind: KindParamField, Fields: fields}
}

// WithPrefix returns a copy of d with prefix set.
func (d Descriptor) WithPrefix(prefix string) Descriptor {
	d.Prefix = prefix
	return d
}

// WithSuffix returns a copy of d with suffix set.
func (d Descriptor) WithSuffix(suffix string) Descriptor {
	d.Suffix = suffix
	return d
}

// WithSeparator returns a copy of d with sep set.
func (d Descriptor) WithSeparator(sep string) Descriptor {
	d.Separator = sep
	return d
}

func (d Descriptor) separator() string {
	if d.Separator == "" {
		return DefaultSeparator
	}
	return d.Separator
}

func (d Descriptor) wrap(v string) string {
	return d.Prefix + v + d.Suffix
}
