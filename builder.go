package authgate

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/halcyonix/authgate/internal/metrics"
	"github.com/halcyonix/authgate/internal/rate"
	"github.com/halcyonix/authgate/internal/stores"
	authjwt "github.com/halcyonix/authgate/jwt"
	"github.com/halcyonix/authgate/kvstore"
	"github.com/halcyonix/authgate/password"
)

// Builder assembles an [Engine] step by step. The zero value is not usable;
// start with [New].
type Builder struct {
	cfg       Config
	redis     redis.UniversalClient
	store     kvstore.Store
	directory UserDirectory
	notifier  Notifier
	log       *slog.Logger
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithRedis supplies the Redis client used as the primary expiring store.
// Without one the engine runs entirely on the in-memory fallback.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore overrides the expiring store outright, bypassing the
// Redis-or-memory selection. Intended for tests.
func (b *Builder) WithStore(store kvstore.Store) *Builder {
	b.store = store
	return b
}

// WithDirectory supplies the user store. Required.
func (b *Builder) WithDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithNotifier supplies the mail sender. Omitting it leaves notifications
// as log lines.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger supplies the structured logger shared by the engine and every
// component under it.
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// Build validates the configuration and wires the engine together.
func (b *Builder) Build() (*Engine, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if b.directory == nil {
		return nil, fmt.Errorf("user directory is required")
	}

	log := b.log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store := b.store
	if store == nil {
		var primary kvstore.Store
		if b.redis != nil {
			primary = kvstore.NewRedis(b.redis)
		}
		store = kvstore.NewFailover(primary, kvstore.NewMemory(b.cfg.MemoryStoreLimit), log)
	}

	tokens, err := authjwt.NewManager(authjwt.Config{
		Secret:     []byte(b.cfg.SecretKey),
		AccessTTL:  b.cfg.AccessTTL,
		RefreshTTL: b.cfg.RefreshTTL,
		Issuer:     b.cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = logNotifier{log: log}
	}

	return &Engine{
		cfg:       b.cfg,
		log:       log,
		directory: b.directory,
		notifier:  notifier,
		tokens:    tokens,
		passwords: hasher,
		resets:    stores.NewResetStore(store, b.cfg.ResetTTL, log),
		blacklist: stores.NewBlacklist(store, log),
		limiter:   rate.New(store, log),
		metrics:   metrics.New(b.cfg.MetricsEnabled),
	}, nil
}

// logNotifier stands in when no mailer is configured. It records the
// intent so development setups can read tokens out of the log.
type logNotifier struct {
	log *slog.Logger
}

func (n logNotifier) SendMail(_ context.Context, to, subject, _ string) error {
	n.log.Info("mail delivery disabled, dropping message", "to", to, "subject", subject)
	return nil
}
