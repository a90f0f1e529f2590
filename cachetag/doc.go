// Package cachetag resolves invalidation tags for cached results.
//
// Tags come from declarative descriptors: literal values, key templates,
// fields extracted from the cached payload, or fields extracted from the call
// parameters. The resolved set is deduplicated and ordered by first
// occurrence.
package cachetag
