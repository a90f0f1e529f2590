// Package auth turns caller credentials into the explicit cachekey.Snapshot
// that keys, tags and recordings are scoped by.
//
// Nothing here is consulted implicitly: callers parse a bearer token or take
// an Identity they already hold and pass the resulting Snapshot along.
package auth
