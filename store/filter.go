package store

import (
	"sort"
	"strings"
	"time"
)

// KeyOrder selects the ordering of key query results.
type KeyOrder int

const (
	// OrderMostActive sorts by read-through plus native operations,
	// descending. Ties put the more recently accessed key first.
	OrderMostActive KeyOrder = iota

	// OrderLeastRecent sorts by last access, oldest first.
	OrderLeastRecent
)

// KeyFilter narrows a key query. Zero values match everything.
type KeyFilter struct {
	// Key matches one key exactly.
	Key string

	// Prefix matches keys starting with the prefix.
	Prefix string

	// Tenant matches the tenant recorded in the key metadata.
	Tenant string

	// AccessedFrom and AccessedTo bound LastAccessed, both inclusive.
	AccessedFrom time.Time
	AccessedTo   time.Time

	Order KeyOrder

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// Match reports whether r satisfies every criterion except Limit.
func (f KeyFilter) Match(r *KeyRecord) bool {
	if f.Key != "" && r.Key != f.Key {
		return false
	}
	if f.Prefix != "" && !strings.HasPrefix(r.Key, f.Prefix) {
		return false
	}
	if f.Tenant != "" && r.Metadata.Tenant != f.Tenant {
		return false
	}
	if !f.AccessedFrom.IsZero() && r.LastAccessed.Before(f.AccessedFrom) {
		return false
	}
	if !f.AccessedTo.IsZero() && r.LastAccessed.After(f.AccessedTo) {
		return false
	}
	return true
}

// Apply filters, orders and limits records in place and returns the result.
// Backends without native query support use it over a full scan.
func (f KeyFilter) Apply(records []*KeyRecord) []*KeyRecord {
	out := records[:0]
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	SortKeys(out, f.Order)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// SortKeys orders records by order.
func SortKeys(records []*KeyRecord, order KeyOrder) {
	switch order {
	case OrderLeastRecent:
		sort.SliceStable(records, func(i, j int) bool {
			a, b := records[i], records[j]
			if !a.LastAccessed.Equal(b.LastAccessed) {
				return a.LastAccessed.Before(b.LastAccessed)
			}
			return a.Key < b.Key
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			a, b := records[i], records[j]
			if ta, tb := a.Traffic(), b.Traffic(); ta != tb {
				return ta > tb
			}
			if !a.LastAccessed.Equal(b.LastAccessed) {
				return a.LastAccessed.After(b.LastAccessed)
			}
			return a.Key < b.Key
		})
	}
}

// InRange reports whether t lies in [from, to]. Zero bounds are open.
func InRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
