package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestForgotPasswordIssuesSingleUseToken(t *testing.T) {
	engine, _, notifier, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	mustRegister(t, engine, "alice@example.com", "correct-horse-battery")

	token, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token for a known email")
	}

	if !engine.ValidateResetToken(ctx, token) {
		t.Fatal("freshly issued token should validate")
	}
	// Validation is a read, not a consume.
	if !engine.ValidateResetToken(ctx, token) {
		t.Fatal("validation must not consume the token")
	}

	if err := engine.ResetPassword(ctx, token, "new-password-here"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if err := engine.ResetPassword(ctx, token, "another-new-pass"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("second use must fail, got %v", err)
	}

	if _, err := engine.Login(ctx, "alice@example.com", "new-password-here"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse-battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(notifier.sent))
	}
	mail := notifier.sent[0]
	if mail.to != "alice@example.com" {
		t.Fatalf("mail sent to %s", mail.to)
	}
	if !strings.Contains(mail.body, "/reset?token="+token) {
		t.Fatal("mail body missing reset link")
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	engine, _, notifier, _ := newTestEngine(t, testConfig())

	token, err := engine.ForgotPassword(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword must not error for unknown email: %v", err)
	}
	if token != "" {
		t.Fatal("unknown email must not yield a token")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.sent) != 0 {
		t.Fatal("no mail should be sent for an unknown email")
	}
}

func TestForgotPasswordDirectoryErrorStaysQuiet(t *testing.T) {
	engine, dir, _, _ := newTestEngine(t, testConfig())
	dir.failAll = true

	token, err := engine.ForgotPassword(context.Background(), "alice@example.com")
	if err != nil || token != "" {
		t.Fatalf("directory failure must look like an unknown email, got token=%q err=%v", token, err)
	}
}

func TestForgotPasswordMailFailureStillReturnsToken(t *testing.T) {
	engine, _, notifier, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	mustRegister(t, engine, "alice@example.com", "correct-horse-battery")
	notifier.fail = true

	token, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("mail failure must not fail the request: %v", err)
	}
	if token == "" || !engine.ValidateResetToken(ctx, token) {
		t.Fatal("token must still be issued and stored")
	}
}

func TestResetTokenExpires(t *testing.T) {
	engine, _, _, mr := newTestEngine(t, testConfig())
	ctx := context.Background()
	mustRegister(t, engine, "alice@example.com", "correct-horse-battery")

	token, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	mr.FastForward(10*time.Minute + time.Second)

	if engine.ValidateResetToken(ctx, token) {
		t.Fatal("expired token should not validate")
	}
	if err := engine.ResetPassword(ctx, token, "new-password-here"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}

func TestResetPasswordRejectsWeakReplacement(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	mustRegister(t, engine, "alice@example.com", "correct-horse-battery")

	token, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	if err := engine.ResetPassword(ctx, token, "short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
	// The policy check runs before consumption, so the token survives a
	// rejected attempt.
	if !engine.ValidateResetToken(ctx, token) {
		t.Fatal("token must survive a policy rejection")
	}
}

func TestResetPasswordGarbageToken(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, testConfig())

	for _, token := range []string{"", "nonsense", "pwdreset:sneaky"} {
		err := engine.ResetPassword(context.Background(), token, "new-password-here")
		if !errors.Is(err, ErrResetTokenInvalid) {
			t.Fatalf("token %q: expected ErrResetTokenInvalid, got %v", token, err)
		}
	}
}
