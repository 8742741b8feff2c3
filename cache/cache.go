// Package cache provides the decision cache used by entity grounding.
// Values are opaque bytes so the cache stays decoupled from what callers
// store in it; grounding serializes its own decisions.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: miss")

// Cache is the decision cache contract. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under key for the given TTL. A zero TTL uses
	// the implementation's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any underlying connections.
	Close() error
}

// Key builds a stable, storage-safe cache key from the given parts.
// Parts are joined and hashed so raw artifact values never leak into key
// space, and the version prefix lets a format change invalidate the
// whole cache at once.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "threatgraph:v1:" + hex.EncodeToString(hash[:])
}
