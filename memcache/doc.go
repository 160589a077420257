// Package memcache provides an in-process object cache keyed by name with
// optional per-entry expiration, and an image-specialized variant that keeps
// the total estimated memory usage of stored images under a configurable
// low-memory ceiling by evicting least recently used entries.
//
// Caches are not safe for concurrent use. They are designed for a single
// logical owner; callers that share a cache between goroutines must
// synchronize externally.
package memcache
