package authgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/halcyonix/authgate/internal/metrics"
	"github.com/halcyonix/authgate/internal/rate"
	"github.com/halcyonix/authgate/internal/stores"
	authjwt "github.com/halcyonix/authgate/jwt"
	"github.com/halcyonix/authgate/password"
)

// Engine implements the credential and session operations. Construct one
// with [Builder.Build]; all methods are safe for concurrent use.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	directory UserDirectory
	notifier  Notifier
	tokens    *authjwt.Manager
	passwords *password.Hasher
	resets    *stores.ResetStore
	blacklist *stores.Blacklist
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
}

// Register creates an account and returns the stored user. The email is
// lowercased and trimmed before lookup so later logins match regardless of
// input casing.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return User{}, err
	}
	if err := e.checkPasswordPolicy(in.Password); err != nil {
		return User{}, err
	}

	hash, err := e.passwords.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := e.directory.Create(ctx, email, hash, strings.TrimSpace(in.FullName))
	if err != nil {
		if errors.Is(err, ErrConflict) {
			e.metrics.Inc(metrics.RegisterConflict)
			return User{}, ErrConflict
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	e.metrics.Inc(metrics.RegisterSuccess)
	e.log.Info("user registered", "user_id", user.ID, "ip", clientIPFromContext(ctx))
	return user, nil
}

// Login checks the credentials and issues a fresh token pair. Unknown
// emails and wrong passwords both come back as [ErrInvalidCredentials].
func (e *Engine) Login(ctx context.Context, email, pass string) (TokenPair, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		e.metrics.Inc(metrics.LoginFailure)
		return TokenPair{}, ErrInvalidCredentials
	}

	user, err := e.directory.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metrics.Inc(metrics.LoginFailure)
			e.log.Info("login rejected", "reason", "unknown email", "ip", clientIPFromContext(ctx))
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := e.passwords.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		e.metrics.Inc(metrics.LoginFailure)
		e.log.Info("login rejected", "reason", "bad password", "user_id", user.ID, "ip", clientIPFromContext(ctx))
		return TokenPair{}, ErrInvalidCredentials
	}
	if !user.Active {
		e.metrics.Inc(metrics.LoginFailure)
		return TokenPair{}, ErrAccountDisabled
	}

	pair, err := e.issuePair(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, err
	}
	e.metrics.Inc(metrics.LoginSuccess)
	e.log.Info("login succeeded", "user_id", user.ID, "ip", clientIPFromContext(ctx))
	return pair, nil
}

// Me resolves an access token to the full user record.
func (e *Engine) Me(ctx context.Context, accessToken string) (User, error) {
	ident, err := e.ValidateAccess(ctx, accessToken)
	if err != nil {
		return User{}, err
	}
	user, err := e.directory.FindByEmail(ctx, ident.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// Allow consults the shared fixed-window limiter. Keys are caller-chosen;
// the HTTP layer uses "route:client-ip". A limit of zero always allows.
func (e *Engine) Allow(ctx context.Context, key string, limit int) bool {
	if limit <= 0 {
		return true
	}
	allowed := e.limiter.Allow(ctx, key, limit, e.cfg.RateLimit.Window)
	if !allowed {
		e.metrics.Inc(metrics.RateLimitHit)
	}
	return allowed
}

// MetricsSnapshot returns the current counter values. With metrics
// disabled the map is present but empty.
func (e *Engine) MetricsSnapshot() map[string]uint64 {
	return e.metrics.Snapshot()
}

func (e *Engine) issuePair(userID, email string) (TokenPair, error) {
	access, err := e.tokens.CreateAccess(userID, email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := e.tokens.CreateRefresh(userID, email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (e *Engine) checkPasswordPolicy(pass string) error {
	if len(pass) < e.cfg.MinPasswordLength {
		return fmt.Errorf("%w: minimum length is %d", ErrPasswordPolicy, e.cfg.MinPasswordLength)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}
