// Package main is the authgate server entry point. It loads configuration,
// opens the user database, connects to Redis when one is configured, wires
// the engine, and serves the HTTP API until terminated.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/halcyonix/authgate"
	"github.com/halcyonix/authgate/internal/directory"
	"github.com/halcyonix/authgate/internal/httpapi"
	"github.com/halcyonix/authgate/internal/mailer"
	"github.com/halcyonix/authgate/kvstore"
)

func main() {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := authgate.FromEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	log.Info("starting authgate", "env", cfg.Env, "addr", cfg.ListenAddr)

	dir, err := directory.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open user database", "error", err)
		os.Exit(1)
	}
	defer dir.Close()
	log.Info("user database ready", "path", cfg.DatabasePath)

	builder := authgate.New().
		WithConfig(cfg).
		WithDirectory(dir).
		WithLogger(log)

	if cfg.RedisURL != "" {
		rdb, err := kvstore.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		builder = builder.WithRedis(rdb)
	} else {
		log.Warn("no redis configured, using in-memory store only")
	}

	if cfg.SMTP.Host != "" {
		m, err := mailer.New(cfg.SMTP)
		if err != nil {
			log.Error("invalid smtp config", "error", err)
			os.Exit(1)
		}
		builder = builder.WithNotifier(m)
	} else {
		log.Warn("no smtp configured, reset mails will be logged only")
	}

	engine, err := builder.Build()
	if err != nil {
		log.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	e := httpapi.NewServer(engine, cfg, log).Echo()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Error("forced shutdown", "error", err)
		}
	}()

	if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("stopped")
}

func newLogger(cfg authgate.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
