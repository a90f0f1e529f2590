package cachetag

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestResolve_MixedDescriptors(t *testing.T) {
	r := NewResolver()

	got := r.Resolve(
		[]Descriptor{
			Literal("a"),
			FromTemplate("user-{user}"),
			DataField("name").WithPrefix("n-"),
		},
		map[string]any{"name": "X"},
		map[string]any{"user": "john"},
	)

	want := []string{"a", "user-john", "n-X"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_LiteralPrefixSuffix(t *testing.T) {
	got := NewResolver().Resolve([]Descriptor{Literal("books").WithPrefix("t:").WithSuffix(":v1")}, nil, nil)
	if len(got) != 1 || got[0] != "t:books:v1" {
		t.Errorf("Resolve() = %v", got)
	}
}

func TestResolve_TemplateDefaultsAndHash(t *testing.T) {
	r := NewResolver()
	payload := map[string]any{"id": 1}

	got := r.Resolve([]Descriptor{FromTemplate("{tenant}/{user}/{locale}/{hash}")}, payload, nil)
	if len(got) != 1 {
		t.Fatalf("Resolve() = %v", got)
	}
	parts := strings.Split(got[0], "/")
	if parts[0] != "global" || parts[1] != "anonymous" || parts[2] != "en" {
		t.Errorf("context defaults not applied: %q", got[0])
	}
	if len(parts[3]) != 32 {
		t.Errorf("hash segment should be 32 characters: %q", parts[3])
	}

	other := r.Resolve([]Descriptor{FromTemplate("{hash}")}, map[string]any{"id": 2}, nil)
	same := r.Resolve([]Descriptor{FromTemplate("{hash}")}, payload, nil)
	if other[0] == same[0] {
		t.Error("different payloads should hash differently")
	}
	if same[0] != parts[3] {
		t.Error("template hash should be deterministic")
	}
}

func TestResolve_DataFieldFanOut(t *testing.T) {
	payload := []map[string]any{
		{"id": 1, "kind": "book"},
		{"id": 2, "kind": "book"},
		{"other": true},
		{"id": 1, "kind": "book"},
	}

	got := NewResolver().Resolve([]Descriptor{DataField("kind", "id").WithPrefix("item:")}, payload, nil)
	want := []string{"item:book:1", "item:book:2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_DataFieldPartialFields(t *testing.T) {
	payload := []any{
		map[string]any{"a": "x"},
		map[string]any{"b": "y"},
		map[string]any{"a": "x", "b": "y"},
	}
	got := NewResolver().Resolve([]Descriptor{DataField("a", "b").WithSeparator("|")}, payload, nil)
	want := []string{"x", "y", "x|y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_DataFieldStructs(t *testing.T) {
	type author struct {
		Name string `json:"name"`
	}
	type book struct {
		ID     int     `json:"id"`
		Author *author `json:"author"`
	}

	payload := []book{{ID: 7, Author: &author{Name: "tolkien"}}, {ID: 8}}
	got := NewResolver().Resolve([]Descriptor{DataField("author.name").WithPrefix("author-"), DataField("id")}, payload, nil)
	want := []string{"author-tolkien", "7", "8"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_LargeNumericIDsMatchAcrossShapes(t *testing.T) {
	type book struct {
		ID int64 `json:"id"`
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(`{"id": 1234567}`), &decoded); err != nil {
		t.Fatal(err)
	}

	desc := []Descriptor{DataField("id").WithPrefix("book-")}
	param := []Descriptor{ParamField("id").WithPrefix("book-")}
	r := NewResolver()

	tests := []struct {
		name string
		got  []string
		want string
	}{
		{"struct payload", r.Resolve(desc, book{ID: 1234567}, nil), "book-1234567"},
		{"struct pointer payload", r.Resolve(desc, &book{ID: 1234567}, nil), "book-1234567"},
		{"map payload", r.Resolve(desc, map[string]any{"id": 1234567}, nil), "book-1234567"},
		{"decoded JSON payload", r.Resolve(desc, decoded, nil), "book-1234567"},
		{"param field", r.Resolve(param, nil, map[string]any{"id": 1234567}), "book-1234567"},
		{"beyond float precision", r.Resolve(desc, book{ID: 9007199254740993}, nil), "book-9007199254740993"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.got) != 1 || tt.got[0] != tt.want {
				t.Errorf("Resolve() = %v, want [%s]", tt.got, tt.want)
			}
		})
	}
}

func TestResolve_ParamFieldDoesNotFanOut(t *testing.T) {
	params := map[string]any{"ids": []any{1, 2}, "region": "eu"}
	got := NewResolver().Resolve([]Descriptor{ParamField("region", "ids")}, nil, params)
	want := []string{"eu:1,2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_MissingFieldsContributeNothing(t *testing.T) {
	got := NewResolver().Resolve(
		[]Descriptor{DataField("missing"), ParamField("missing"), Literal("")},
		map[string]any{"name": "X"},
		map[string]any{"user": "john"},
	)
	if len(got) != 0 {
		t.Errorf("Resolve() = %v, want empty", got)
	}
}

func TestResolve_CaseSensitiveDedup(t *testing.T) {
	got := NewResolver().Resolve([]Descriptor{Literal("A"), Literal("a"), Literal("A")}, nil, nil)
	want := []string{"A", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindLiteral, "literal"},
		{KindTemplate, "template"},
		{KindDataField, "data"},
		{KindParamField, "param"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
