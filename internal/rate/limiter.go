package rate

import (
	"context"
	"log/slog"
	"time"

	"github.com/halcyonix/authgate/kvstore"
)

// Limiter enforces per-key fixed-window request budgets using the shared
// expiring key-value store.
type Limiter struct {
	store kvstore.Store
	log   *slog.Logger
}

// New creates a [Limiter] backed by the given store.
func New(store kvstore.Store, log *slog.Logger) *Limiter {
	if log == nil {
		log = slog.Default()
	}
	return &Limiter{store: store, log: log}
}

// Allow increments the counter for key and reports whether the resulting
// count is within limit for the current window. The first increment of a
// window arms the window TTL.
//
// A store error fails open: the request is allowed and the failure logged.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	count, err := l.store.Increment(ctx, key, window)
	if err != nil {
		l.log.WarnContext(ctx, "rate limit check failed, allowing request",
			slog.String("key", key),
			slog.Any("error", err))
		return true
	}
	return count <= int64(limit)
}
