package stores

import (
	"context"
	"log/slog"
	"time"

	"github.com/halcyonix/authgate/internal"
	"github.com/halcyonix/authgate/kvstore"
)

const resetKeyPrefix = "pwdreset:"

// ResetStore issues and consumes single-use password-reset tokens mapped to
// an email address.
type ResetStore struct {
	store kvstore.Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewResetStore creates a [ResetStore] with the given token lifetime.
func NewResetStore(store kvstore.Store, ttl time.Duration, log *slog.Logger) *ResetStore {
	if log == nil {
		log = slog.Default()
	}
	return &ResetStore{store: store, ttl: ttl, log: log}
}

// Issue generates a fresh token and stores token -> email with the reset
// TTL. A storage failure is logged and the token is still returned: the
// surrounding flow must not leak internal failures to the caller. A token
// that failed to store can never be consumed.
func (s *ResetStore) Issue(ctx context.Context, email string) (string, error) {
	token, err := internal.NewSecretToken()
	if err != nil {
		return "", err
	}

	if err := s.store.Set(ctx, resetKeyPrefix+token, email, s.ttl); err != nil {
		s.log.ErrorContext(ctx, "failed to store reset token, returning it unpersisted",
			slog.Any("error", err))
	}

	return token, nil
}

// Validate reports whether the token currently exists, without consuming
// it. UI pre-checks only: a concurrent Consume can win the race.
func (s *ResetStore) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	exists, err := s.store.Exists(ctx, resetKeyPrefix+token)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to validate reset token", slog.Any("error", err))
		return false
	}
	return exists
}

// Consume atomically fetches and deletes the token, returning the mapped
// email. Missing, expired, and malformed tokens are indistinguishable so
// probing token shapes reveals nothing.
func (s *ResetStore) Consume(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}

	email, ok, err := s.store.GetDel(ctx, resetKeyPrefix+token)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to consume reset token", slog.Any("error", err))
		return "", false
	}
	return email, ok
}
