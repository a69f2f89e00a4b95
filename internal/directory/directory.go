// Package directory persists user accounts in SQLite.
//
// A single file backs the whole account table; WAL mode keeps concurrent
// reads cheap and the busy timeout absorbs writer contention. The package
// is the only place that touches SQL.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/halcyonix/authgate"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	full_name     TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	is_active     INTEGER NOT NULL DEFAULT 1,
	is_staff      INTEGER NOT NULL DEFAULT 0,
	is_superuser  INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL
);
`

// Store implements [authgate.UserDirectory] over SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating the schema if needed. Use
// ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) FindByEmail(ctx context.Context, email string) (authgate.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, password_hash, is_active, is_staff, is_superuser, created_at
		FROM users WHERE email = ?`, email)

	var u authgate.User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Active, &u.Staff, &u.Superuser, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return authgate.User{}, authgate.ErrNotFound
	}
	if err != nil {
		return authgate.User{}, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}

func (s *Store) Create(ctx context.Context, email, passwordHash, fullName string) (authgate.User, error) {
	u := authgate.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		u.ID, u.Email, u.FullName, u.PasswordHash, u.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return authgate.User{}, authgate.ErrConflict
		}
		return authgate.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) SetPassword(ctx context.Context, userID, newHash string) error {
	return s.updateOne(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, newHash, userID)
}

func (s *Store) SetActive(ctx context.Context, userID string, active bool) error {
	return s.updateOne(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, userID)
}

func (s *Store) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return authgate.ErrNotFound
	}
	return nil
}

// isUniqueViolation matches the driver's constraint error text. The modernc
// driver has no typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
