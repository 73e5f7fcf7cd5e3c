// Package cache defines the port interface for caching blame results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the port interface for key-value caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// BlameKey returns the cache key for the blame of relPath at revision.
// Paths contain characters NATS KV rejects, so the pair is hashed.
func BlameKey(revision, relPath string) string {
	sum := sha256.Sum256([]byte(revision + ":" + relPath))
	return "blame." + hex.EncodeToString(sum[:])
}
