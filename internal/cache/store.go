// Package cache provides the key-value store behind the login lockout guard.
//
// The guard only needs get/set-with-TTL/delete semantics, so the backing
// store is an interface: single-instance deployments use the in-process
// store, multi-instance deployments point CACHE_DRIVER at a shared Redis so
// lockout state survives instance affinity changes.
package cache

import (
	"context"
	"time"
)

// Store is a string key-value store with per-entry expiry. Mutations are
// atomic per key; no cross-key coordination is provided or needed.
type Store interface {
	// Get returns the value for key and whether it exists. Expired entries
	// are reported as absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes key=value, replacing any prior entry and resetting its
	// expiry to now+ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Increment atomically adds one to the integer stored at key, creating
	// it at 1 if absent, and resets its expiry to now+ttl. Returns the new
	// value. Concurrent increments of the same key never lose updates.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
