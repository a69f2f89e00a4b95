package authgate

import "errors"

// Sentinel errors returned by engine operations. Callers classify with
// errors.Is; the HTTP layer maps each one to a status code and a stable
// client-facing message.
var (
	// ErrUnauthorized covers every token-level rejection: bad signature,
	// wrong token type, expiry, and blacklisted or already-rotated
	// refresh tokens. The cause is deliberately not distinguished to
	// callers.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned by Login for an unknown email or
	// a wrong password. The two cases are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled is returned by Login when the credentials check
	// out but the account has been deactivated.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrNotFound reports a missing directory record.
	ErrNotFound = errors.New("user not found")

	// ErrConflict reports a registration against an email that already
	// has an account.
	ErrConflict = errors.New("email already registered")

	// ErrInvalidEmail reports an address that does not parse per RFC 5322.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrPasswordPolicy reports a candidate password below the configured
	// minimum length.
	ErrPasswordPolicy = errors.New("password does not meet policy")

	// ErrResetTokenInvalid reports a reset token that is unknown, already
	// consumed, or expired. The three cases are indistinguishable.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")

	// ErrRateLimited reports that a fixed-window limit was exceeded.
	ErrRateLimited = errors.New("too many requests")
)
