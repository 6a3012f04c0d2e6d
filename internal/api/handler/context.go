package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/passop/passop-api/internal/api/middleware"
)

// ctxUserID returns the caller id injected by the Auth middleware. An empty
// value means the route was mounted without the middleware.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.UserIDKey).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	}
	return userID, nil
}
