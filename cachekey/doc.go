// Package cachekey derives deterministic, context-aware cache keys.
//
// A call is described by a Descriptor (Raw, Query, ServiceCall or Object).
// Raw strings are used verbatim; every other descriptor is reduced to a
// 128-bit content hash of its canonical serialization and substituted into a
// key Template together with the caller's Snapshot (tenant, user, locale).
package cachekey
