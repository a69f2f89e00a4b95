package authgate

import (
	"context"
	"time"
)

// User is the directory record for one account. The password credential is
// held only as a salted argon2id digest, never plaintext.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Active       bool
	Staff        bool
	Superuser    bool
	CreatedAt    time.Time
}

// RegisterInput is the input for [Engine.Register]. Confirmation-field
// matching belongs to the request boundary; the engine sees one password.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// TokenPair is a signed access/refresh credential pair bound to one user.
type TokenPair struct {
	Access  string
	Refresh string
}

// Identity is the authenticated principal extracted from a valid access
// token.
type Identity struct {
	UserID string
	Email  string
}

// UserDirectory is the collaborator that owns user persistence. The engine
// needs nothing beyond credential lookup, creation, and password updates;
// deactivation is a flag flip owned by the directory.
//
// Implementations return [ErrNotFound] for unknown emails and [ErrConflict]
// for duplicate registrations.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, email, passwordHash, fullName string) (User, error)
	SetPassword(ctx context.Context, userID, newHash string) error
	SetActive(ctx context.Context, userID string, active bool) error
}

// Notifier delivers out-of-band messages to users. Delivery failure is
// logged by the engine and never blocks the triggering operation.
type Notifier interface {
	SendMail(ctx context.Context, to, subject, body string) error
}
