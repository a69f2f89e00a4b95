package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/halcyonix/authgate"
)

type errorBody struct {
	Detail string `json:"detail"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Active   bool   `json:"is_active"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type forgotResponse struct {
	Detail string `json:"detail"`
	Token  string `json:"token,omitempty"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// forgotDetail is returned for every forgot-password request so responses
// cannot reveal which emails have accounts.
const forgotDetail = "If the email exists, a reset link has been sent."

func toUserResponse(u authgate.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, FullName: u.FullName, Active: u.Active}
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}

	user, err := s.engine.Register(s.reqCtx(c), authgate.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}

	pair, err := s.engine.Login(s.reqCtx(c), req.Email, req.Password)
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

func (s *Server) handleForgotPassword(c echo.Context) error {
	var req forgotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}

	token, err := s.engine.ForgotPassword(s.reqCtx(c), req.Email)
	if err != nil {
		return s.renderError(c, err)
	}

	resp := forgotResponse{Detail: forgotDetail}
	// The raw token leaves the API only outside production, where mail
	// delivery is usually absent.
	if !s.cfg.IsProduction() {
		resp.Token = token
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleValidateResetToken(c echo.Context) error {
	token := c.QueryParam("token")
	if !s.engine.ValidateResetToken(s.reqCtx(c), token) {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid or expired reset token"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) handleResetPassword(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}

	if err := s.engine.ResetPassword(s.reqCtx(c), req.Token, req.Password); err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"detail": "password has been reset"})
}

func (s *Server) handleRefresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}

	pair, err := s.engine.Refresh(s.reqCtx(c), req.Refresh)
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

func (s *Server) handleLogout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}

	if err := s.engine.Logout(s.reqCtx(c), req.Refresh); err != nil {
		return s.renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMe(c echo.Context) error {
	token, ok := bearerToken(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Detail: "missing bearer token"})
	}

	user, err := s.engine.Me(s.reqCtx(c), token)
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.MetricsSnapshot())
}

// reqCtx tags the request context with the caller address for engine logs.
func (s *Server) reqCtx(c echo.Context) context.Context {
	return authgate.WithClientIP(c.Request().Context(), c.RealIP())
}

func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, prefix))
	return token, token != ""
}

// renderError maps engine sentinels to HTTP statuses. Anything unmapped is
// a 500 with a generic body; the real error goes to the log only.
func (s *Server) renderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, authgate.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorBody{Detail: "invalid credentials"})
	case errors.Is(err, authgate.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, errorBody{Detail: "unauthorized"})
	case errors.Is(err, authgate.ErrAccountDisabled):
		return c.JSON(http.StatusForbidden, errorBody{Detail: "account disabled"})
	case errors.Is(err, authgate.ErrConflict):
		return c.JSON(http.StatusConflict, errorBody{Detail: "email already registered"})
	case errors.Is(err, authgate.ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid email address"})
	case errors.Is(err, authgate.ErrPasswordPolicy):
		return c.JSON(http.StatusBadRequest, errorBody{Detail: err.Error()})
	case errors.Is(err, authgate.ErrResetTokenInvalid):
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid or expired reset token"})
	case errors.Is(err, authgate.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Detail: "user not found"})
	default:
		s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody{Detail: "internal server error"})
	}
}
