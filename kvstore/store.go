// Package kvstore provides the expiring key-value store used for reset
// tokens, token blacklisting, and rate-limit counters.
//
// The primary backend is Redis. When Redis is unreachable the [Failover]
// wrapper degrades to an in-process [Memory] store so that token issuance
// and rate limiting keep working (with process-local semantics) instead of
// failing the request.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps any backend transport failure. Callers on the
// degraded paths (reset issuance, rate limiting) treat it as a signal to
// fail open, never as a fatal error.
var ErrUnavailable = errors.New("kv store unavailable")

// Store is the uniform contract over the expiring key-value backends.
//
// Increment applies the window TTL only on the first increment of a window,
// giving fixed-window counter semantics. GetDel is the atomic
// fetch-and-consume primitive used for single-use tokens.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	GetDel(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
