package authgate

import (
	"context"

	"github.com/halcyonix/authgate/internal/metrics"
	authjwt "github.com/halcyonix/authgate/jwt"
)

// ValidateAccess verifies an access token and returns the principal it was
// issued to. A token that parses but sits on the blacklist is rejected the
// same way as a forged one.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (Identity, error) {
	claims, err := e.tokens.Parse(token, authjwt.TypeAccess)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	if e.blacklist.Contains(ctx, token) {
		return Identity{}, ErrUnauthorized
	}
	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// Refresh rotates a refresh token: the presented token is blacklisted for
// its remaining lifetime and a brand new pair is issued. Presenting the
// same refresh token twice therefore fails the second time, which is the
// signal that a stolen token is being replayed.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := e.tokens.Parse(refreshToken, authjwt.TypeRefresh)
	if err != nil {
		e.metrics.Inc(metrics.RefreshFailure)
		return TokenPair{}, ErrUnauthorized
	}
	if e.blacklist.Contains(ctx, refreshToken) {
		e.metrics.Inc(metrics.RefreshFailure)
		e.log.Warn("rotated refresh token replayed", "user_id", claims.Subject, "ip", clientIPFromContext(ctx))
		return TokenPair{}, ErrUnauthorized
	}

	pair, err := e.issuePair(claims.Subject, claims.Email)
	if err != nil {
		e.metrics.Inc(metrics.RefreshFailure)
		return TokenPair{}, err
	}

	// Retire the old token only after the new pair exists so a signing
	// failure never strands the caller with no valid credential.
	e.blacklist.Add(ctx, refreshToken, e.tokens.Remaining(claims))

	e.metrics.Inc(metrics.RefreshSuccess)
	return pair, nil
}

// Logout invalidates a refresh token for its remaining lifetime. Access
// tokens already in the wild stay valid until they expire; they are short
// lived by configuration.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	claims, err := e.tokens.Parse(refreshToken, authjwt.TypeRefresh)
	if err != nil {
		return ErrUnauthorized
	}
	e.blacklist.Add(ctx, refreshToken, e.tokens.Remaining(claims))
	e.metrics.Inc(metrics.Logout)
	e.log.Info("logout", "user_id", claims.Subject, "ip", clientIPFromContext(ctx))
	return nil
}
