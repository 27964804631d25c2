// Package kvx is a small key/value abstraction with per-entry TTLs. It backs
// short lived state such as pending OTP signups.
package kvx

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kvx: not found")

type Store interface {
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Pruner is implemented by stores that must evict expired entries themselves.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}
