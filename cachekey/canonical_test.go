package cachekey

import "testing"

func TestContentHash_DeterministicForMaps(t *testing.T) {
	map1 := map[string]any{"b": 2, "a": 1, "c": 3}
	map2 := map[string]any{"a": 1, "c": 3, "b": 2}

	h1, err := ContentHash(map1)
	if err != nil {
		t.Fatalf("ContentHash() error = %v", err)
	}
	h2, err := ContentHash(map2)
	if err != nil {
		t.Fatalf("ContentHash() error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("hashes should be equal for same content:\n  h1=%s\n  h2=%s", h1, h2)
	}
}

func TestContentHash_NestedMaps(t *testing.T) {
	nested1 := map[string]any{
		"outer": map[string]any{"z": 26, "a": 1, "m": 13},
		"other": "value",
	}
	nested2 := map[string]any{
		"other": "value",
		"outer": map[string]any{"a": 1, "m": 13, "z": 26},
	}

	h1, _ := ContentHash(nested1)
	h2, _ := ContentHash(nested2)
	if h1 != h2 {
		t.Errorf("hashes should be equal for nested maps with same content:\n  h1=%s\n  h2=%s", h1, h2)
	}
}

func TestContentHash_ArrayOrderPreserved(t *testing.T) {
	h1, _ := ContentHash(map[string]any{"items": []any{1, 2, 3}})
	h2, _ := ContentHash(map[string]any{"items": []any{3, 2, 1}})
	if h1 == h2 {
		t.Error("hashes should differ for different array order")
	}
}

func TestContentHash_NilVersusEmpty(t *testing.T) {
	hNil, _ := ContentHash(nil)
	hEmpty, _ := ContentHash(map[string]any{})
	if hNil == hEmpty {
		t.Error("hashes should differ for nil vs empty map")
	}
}

func TestContentHash_Format(t *testing.T) {
	h, err := ContentHash(map[string]any{"test": "value"})
	if err != nil {
		t.Fatalf("ContentHash() error = %v", err)
	}
	if len(h) != HashLength {
		t.Fatalf("hash length = %d, want %d: %q", len(h), HashLength, h)
	}
	for _, c := range h {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("hash should be lowercase hex, got %q", h)
		}
	}
}

func TestContentHash_Unserializable(t *testing.T) {
	if _, err := ContentHash(map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("expected error for a channel value")
	}
}
