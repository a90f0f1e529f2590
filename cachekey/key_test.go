package cachekey

import (
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "acme:john:0123456789abcdef", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains carriage return", "key\rwith\rreturns", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateKey(tt.key); err != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestSnapshot_WithDefaults(t *testing.T) {
	got := Snapshot{User: "john"}.WithDefaults()
	want := Snapshot{Tenant: "global", User: "john", Locale: "en"}
	if got != want {
		t.Errorf("WithDefaults() = %+v, want %+v", got, want)
	}
	if DefaultSnapshot() != (Snapshot{}).WithDefaults() {
		t.Error("DefaultSnapshot() should equal an empty snapshot with defaults")
	}
}

func TestIsRetrieval(t *testing.T) {
	tests := []struct {
		op   string
		want bool
	}{
		{"", true},
		{"find", true},
		{"findOne", true},
		{"count", true},
		{"aggregate", true},
		{"insert", false},
		{"UPDATE", false},
		{"updateMany", false},
		{"deleteOne", false},
		{"upsert", false},
		{" remove ", false},
		{"delete_one", false},
		{"Insert", false},
		{"DELETEMANY", false},
		{"save", false},
		{"saved", true},
		{"dropdownValues", true},
		{"mergedView", true},
		{"creator", true},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			if got := IsRetrieval(tt.op); got != tt.want {
				t.Errorf("IsRetrieval(%q) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

func TestPolicy_KeyTemplate(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   Template
	}{
		{"default", DefaultPolicy(), "{hash}"},
		{"user", Policy{UserAware: true}, "{user}:{hash}"},
		{"all flags keep fixed order", Policy{LocaleAware: true, UserAware: true, TenantAware: true}, "{tenant}:{user}:{locale}:{hash}"},
		{"tenant and locale", Policy{TenantAware: true, LocaleAware: true}, "{tenant}:{locale}:{hash}"},
		{"explicit override", Policy{UserAware: true, Template: "{baseKey}-{hash}"}, "{baseKey}-{hash}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.KeyTemplate(); got != tt.want {
				t.Errorf("KeyTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}
