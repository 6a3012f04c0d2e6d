package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/passop/passop-api/internal/core/ports"
)

// UserIDKey is the echo context key holding the authenticated user id.
const UserIDKey = "user_id"

// Auth validates the bearer token and injects the caller's user id into context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			userID, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token").SetInternal(err)
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}
