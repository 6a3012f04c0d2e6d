package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/passop/passop-api/internal/api/metrics"
	"github.com/passop/passop-api/internal/core/domain"
	"github.com/passop/passop-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account. No token is issued; the client logs in separately.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      429   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultExists).Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "User registered successfully"})
}

// Login authenticates a user and returns a session token valid for 7 days.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  messageResponse
// @Failure      429   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTooManyAttempts):
			metrics.LoginsTotal.WithLabelValues(metrics.ResultLocked).Inc()
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}
