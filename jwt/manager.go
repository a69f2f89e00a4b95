package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes the two halves of a session token pair. Encoding
// the type in the claims prevents a refresh token from being presented
// where an access token is expected, and vice versa.
type TokenType string

const (
	// TypeAccess marks short-lived bearer credentials.
	TypeAccess TokenType = "access"
	// TypeRefresh marks the longer-lived rotation credentials.
	TypeRefresh TokenType = "refresh"
)

// ErrTokenInvalid covers every verification failure: bad signature, wrong
// algorithm, expiry, wrong token type. Callers get a single error kind so
// responses cannot be used to probe why a token was rejected.
var ErrTokenInvalid = errors.New("invalid token")

// Config holds the signing parameters. Instances are set up once at
// initialization and treated as immutable afterwards.
type Config struct {
	// Secret is the server-held HMAC key. Minimum 32 bytes.
	Secret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Issuer string
	Leeway time.Duration
}

// Claims is the payload carried by both token types. Subject holds the
// user ID; the credential hash is never embedded.
type Claims struct {
	Email     string    `json:"email,omitempty"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Manager signs and verifies token pairs with a single HS256 key.
type Manager struct {
	config Config
}

// NewManager validates the configuration and returns a [Manager].
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL must not be shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// CreateAccess issues a short-lived access token for the user.
func (m *Manager) CreateAccess(userID, email string) (string, error) {
	return m.create(userID, email, TypeAccess, m.config.AccessTTL)
}

// CreateRefresh issues a refresh token for the user.
func (m *Manager) CreateRefresh(userID, email string) (string, error) {
	return m.create(userID, email, TypeRefresh, m.config.RefreshTTL)
}

func (m *Manager) create(userID, email string, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:     email,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.config.Secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse verifies signature, expiry, and token type. Any failure maps to
// [ErrTokenInvalid].
func (m *Manager) Parse(tokenStr string, want TokenType) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: wrong token type", ErrTokenInvalid)
	}

	return claims, nil
}

// Remaining returns the time until the token's natural expiry, used to size
// blacklist TTLs. Never negative.
func (m *Manager) Remaining(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
