package authgate

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// RateLimitConfig holds per-route fixed-window request budgets. A limit of
// zero disables the check for that route.
type RateLimitConfig struct {
	Login    int           `env:"RATE_LIMIT_LOGIN" envDefault:"20"`
	Register int           `env:"RATE_LIMIT_REGISTER" envDefault:"10"`
	Forgot   int           `env:"RATE_LIMIT_FORGOT" envDefault:"5"`
	Reset    int           `env:"RATE_LIMIT_RESET" envDefault:"5"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// SMTPConfig configures outbound mail. An empty Host disables delivery and
// the engine falls back to logging the notification instead.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
	StartTLS bool   `env:"STARTTLS" envDefault:"true"`
}

// Config carries everything the engine and its surrounding service need.
// Zero values are filled from env tags by [FromEnv]; tests usually start
// from [DefaultConfig] and override fields directly.
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// SecretKey signs access and refresh tokens. It must be at least 32
	// bytes; there is no default.
	SecretKey string `env:"SECRET_KEY"`

	RedisURL     string `env:"REDIS_URL"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"authgate.db"`
	FrontendURL  string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	ResetTTL   time.Duration `env:"RESET_TOKEN_TTL" envDefault:"10m"`

	MinPasswordLength int    `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
	MemoryStoreLimit  int    `env:"MEMORY_STORE_LIMIT" envDefault:"65536"`
	JWTIssuer         string `env:"JWT_ISSUER" envDefault:"authgate"`
	MetricsEnabled    bool   `env:"METRICS_ENABLED" envDefault:"true"`

	RateLimit RateLimitConfig
	SMTP      SMTPConfig `envPrefix:"SMTP_"`
}

// DefaultConfig returns a Config with every tunable at its documented
// default and no secret key set.
func DefaultConfig() Config {
	return Config{
		Env:               "development",
		ListenAddr:        ":8080",
		LogLevel:          "info",
		DatabasePath:      "authgate.db",
		FrontendURL:       "http://localhost:3000",
		AccessTTL:         30 * time.Minute,
		RefreshTTL:        168 * time.Hour,
		ResetTTL:          10 * time.Minute,
		MinPasswordLength: 8,
		MemoryStoreLimit:  65536,
		JWTIssuer:         "authgate",
		MetricsEnabled:    true,
		RateLimit: RateLimitConfig{
			Login:    20,
			Register: 10,
			Forgot:   5,
			Reset:    5,
			Window:   time.Minute,
		},
		SMTP: SMTPConfig{
			Port:     587,
			StartTLS: true,
		},
	}
}

// FromEnv builds a Config from process environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields the engine cannot run without.
func (c Config) Validate() error {
	if len(c.SecretKey) < 32 {
		return fmt.Errorf("secret key must be at least 32 bytes, got %d", len(c.SecretKey))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.ResetTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.RefreshTTL < c.AccessTTL {
		return fmt.Errorf("refresh lifetime %s shorter than access lifetime %s", c.RefreshTTL, c.AccessTTL)
	}
	if c.MinPasswordLength < 1 {
		return fmt.Errorf("minimum password length must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	return nil
}

// IsProduction reports whether reset tokens must be withheld from API
// responses and delivered only by mail.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
