package cachekey

import "strings"

// WriteOperations are query verbs with side effects. Their results must never
// be cached.
var WriteOperations = []string{
	"insert", "update", "delete", "upsert", "create", "remove",
	"replace", "save", "truncate", "drop", "alter", "merge",
}

// IsRetrieval reports whether op is a read-only query verb.
//
// A write verb matches case-insensitively, either alone or followed by
// anything but a lowercase letter, as in "updateMany", "delete_one" or
// "DELETE". A verb that merely starts with the same letters, such as
// "dropdownValues" or "saved", is a read.
func IsRetrieval(op string) bool {
	op = strings.TrimSpace(op)
	for _, w := range WriteOperations {
		if len(op) < len(w) || !strings.EqualFold(op[:len(w)], w) {
			continue
		}
		if len(op) == len(w) || !isLowerLetter(op[len(w)]) {
			return false
		}
	}
	return true
}

func isLowerLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// normalizeOperation maps equivalent spellings of a verb to one hash input.
func normalizeOperation(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	if op == "" {
		return "find"
	}
	return op
}
