// Package httpapi exposes the engine over a JSON HTTP API.
//
// Handlers are thin: they bind the request, call the engine, and render the
// response. No business logic lives here.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/halcyonix/authgate"
)

// Server wires engine operations to routes.
type Server struct {
	engine *authgate.Engine
	cfg    authgate.Config
	log    *slog.Logger
}

// NewServer creates a Server around a built engine.
func NewServer(engine *authgate.Engine, cfg authgate.Config, log *slog.Logger) *Server {
	return &Server{engine: engine, cfg: cfg, log: log}
}

// Echo builds the router with middleware and all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(s.requestLogger())

	rl := s.cfg.RateLimit
	e.POST("/register", s.handleRegister, s.rateLimit("register", rl.Register))
	e.POST("/login", s.handleLogin, s.rateLimit("login", rl.Login))
	e.POST("/forgot-password", s.handleForgotPassword, s.rateLimit("forgot", rl.Forgot))
	e.GET("/reset-password", s.handleValidateResetToken)
	e.POST("/reset-password", s.handleResetPassword, s.rateLimit("reset", rl.Reset))
	e.POST("/refresh", s.handleRefresh)
	e.POST("/logout", s.handleLogout)
	e.GET("/me", s.handleMe)
	e.GET("/healthz", s.handleHealthz)
	e.GET("/metrics", s.handleMetrics)

	return e
}

// requestLogger emits one slog line per request.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.log.Info("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"ip", c.RealIP(),
			)
			return err
		}
	}
}

// rateLimit enforces a fixed-window budget per client IP. The check fails
// open inside the engine, so a degraded store never blocks traffic.
func (s *Server) rateLimit(name string, limit int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := name + ":" + c.RealIP()
			if !s.engine.Allow(c.Request().Context(), key, limit) {
				return c.JSON(http.StatusTooManyRequests, errorBody{Detail: "too many requests"})
			}
			return next(c)
		}
	}
}
