package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/halcyonix/authgate/internal/metrics"
)

// ForgotPassword starts a reset flow for the given email. It always
// succeeds from the caller's perspective: an unknown address returns an
// empty token and no error, so the response cannot be used to probe which
// emails have accounts. When the address is known, a single-use token is
// stored and mailed; the token is also returned so non-production
// deployments can surface it directly.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (string, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return "", nil
	}

	user, err := e.directory.FindByEmail(ctx, normalized)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			e.log.Error("reset lookup failed", "error", err)
		}
		return "", nil
	}

	token, err := e.resets.Issue(ctx, user.Email)
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}
	e.metrics.Inc(metrics.ResetRequested)

	link := e.cfg.FrontendURL + "/reset?token=" + token
	body := fmt.Sprintf("Hello,\n\nA password reset was requested for your account. "+
		"Use the link below within %s to choose a new password:\n\n%s\n\n"+
		"If you did not request this, you can ignore this message.\n", e.cfg.ResetTTL, link)
	if err := e.notifier.SendMail(ctx, user.Email, "Password reset for your account", body); err != nil {
		e.log.Error("reset mail delivery failed", "user_id", user.ID, "error", err)
	}

	e.log.Info("password reset requested", "user_id", user.ID, "ip", clientIPFromContext(ctx))
	return token, nil
}

// ValidateResetToken reports whether a reset token is currently live
// without consuming it. Front ends call this before showing the new
// password form.
func (e *Engine) ValidateResetToken(ctx context.Context, token string) bool {
	return e.resets.Validate(ctx, token)
}

// ResetPassword consumes a reset token and installs a new password. The
// token is removed atomically before any other work, so a second call with
// the same token fails with [ErrResetTokenInvalid] even under concurrent
// submission.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := e.checkPasswordPolicy(newPassword); err != nil {
		e.metrics.Inc(metrics.ResetConfirmFailure)
		return err
	}

	email, ok := e.resets.Consume(ctx, token)
	if !ok {
		e.metrics.Inc(metrics.ResetConfirmFailure)
		return ErrResetTokenInvalid
	}

	user, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		e.metrics.Inc(metrics.ResetConfirmFailure)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := e.passwords.Hash(newPassword)
	if err != nil {
		e.metrics.Inc(metrics.ResetConfirmFailure)
		return fmt.Errorf("hash password: %w", err)
	}
	if err := e.directory.SetPassword(ctx, user.ID, hash); err != nil {
		e.metrics.Inc(metrics.ResetConfirmFailure)
		return fmt.Errorf("store password: %w", err)
	}

	e.metrics.Inc(metrics.ResetConfirmSuccess)
	e.log.Info("password reset completed", "user_id", user.ID, "ip", clientIPFromContext(ctx))
	return nil
}
