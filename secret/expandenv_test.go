package secret

import (
	"errors"
	"strings"
	"testing"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("CS_HOST", "db.internal")
	t.Setenv("CS_USER", "stats")

	tests := []struct {
		name    string
		in      string
		want    string
		missing string
	}{
		{"plain", "memory", "memory", ""},
		{"braced", "postgres://${CS_USER}@${CS_HOST}/stats", "postgres://stats@db.internal/stats", ""},
		{"bare", "$CS_HOST:6379", "db.internal:6379", ""},
		{"dollar escape", "pa$$word", "pa$word", ""},
		{"escape before ref", "$$${CS_USER}", "$stats", ""},
		{"missing", "${CS_USER}:${CS_NOPE_B}:${CS_NOPE_A}", "", "CS_NOPE_A, CS_NOPE_B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnvStrict(tt.in)
			if tt.missing != "" {
				if !errors.Is(err, ErrMissingEnv) || !strings.Contains(err.Error(), tt.missing) {
					t.Fatalf("err = %v, want ErrMissingEnv naming %s", err, tt.missing)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandEnvStrict: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrict_EmptyIsSet(t *testing.T) {
	t.Setenv("CS_EMPTY", "")
	got, err := ExpandEnvStrict("[${CS_EMPTY}]")
	if err != nil || got != "[]" {
		t.Errorf("got %q, %v", got, err)
	}
}
