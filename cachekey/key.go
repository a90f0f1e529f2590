package cachekey

import (
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for key validation.
var (
	ErrInvalidKey = errors.New("cachekey: key is invalid")
	ErrKeyTooLong = errors.New("cachekey: key exceeds max length")
)

// ValidateKey checks if a synthesized key is usable by a cache backend.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
