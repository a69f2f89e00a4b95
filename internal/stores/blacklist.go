package stores

import (
	"context"
	"log/slog"
	"time"

	"github.com/halcyonix/authgate/kvstore"
)

const (
	blacklistKeyPrefix = "token_blacklist:"
	blacklistMarker    = "blacklisted"
)

// Blacklist records revoked session tokens until their natural expiry.
type Blacklist struct {
	store kvstore.Store
	log   *slog.Logger
}

// NewBlacklist creates a [Blacklist] on the given store.
func NewBlacklist(store kvstore.Store, log *slog.Logger) *Blacklist {
	if log == nil {
		log = slog.Default()
	}
	return &Blacklist{store: store, log: log}
}

// Add marks token as revoked for its remaining lifetime. The TTL must not
// undercut the token's own expiry or a revoked token could come back; a
// slightly longer TTL only delays store cleanup. Failures are logged, not
// returned.
func (b *Blacklist) Add(ctx context.Context, token string, remaining time.Duration) {
	if token == "" || remaining <= 0 {
		return
	}

	if err := b.store.Set(ctx, blacklistKeyPrefix+token, blacklistMarker, remaining); err != nil {
		b.log.ErrorContext(ctx, "failed to blacklist token", slog.Any("error", err))
	}
}

// Contains reports whether token has been revoked. A store failure is
// logged and reported as not-blacklisted, keeping token validation
// available while the backend is degraded.
func (b *Blacklist) Contains(ctx context.Context, token string) bool {
	exists, err := b.store.Exists(ctx, blacklistKeyPrefix+token)
	if err != nil {
		b.log.ErrorContext(ctx, "failed to check token blacklist", slog.Any("error", err))
		return false
	}
	return exists
}
