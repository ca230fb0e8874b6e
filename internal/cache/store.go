// Package cache wraps the shared key-value store used by the idempotency
// layer. Transport-level failures are normalized into ErrUnavailable so that
// callers can tell "key absent" apart from "store unreachable".
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cache: key not found")
var ErrUnavailable = errors.New("cache: store unavailable")

// TTL return values for keys without an expiry and for absent keys.
// These mirror the Redis TTL command semantics.
const (
	TTLNone    int64 = -1
	TTLMissing int64 = -2
)

type Store interface {
	// Get returns the value stored under key. ErrNotFound when the key is
	// absent, ErrUnavailable when the store cannot be reached.
	Get(ctx context.Context, key string) (string, error)

	// SetWithTTL stores value under key with the given expiry.
	// A non-positive ttl stores the key without an expiry.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key and reports how many keys were removed (0 or 1).
	Delete(ctx context.Context, key string) (int64, error)

	// ScanKeys returns all keys starting with prefix using a cursor-based
	// scan, never a blocking full-keyspace listing.
	ScanKeys(ctx context.Context, prefix string) ([]string, error)

	// TTL returns the remaining time-to-live of key in seconds,
	// TTLNone when the key has no expiry, TTLMissing when it does not exist.
	TTL(ctx context.Context, key string) (int64, error)
}
