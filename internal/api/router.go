package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/passop/passop-api/docs"
	"github.com/passop/passop-api/internal/api/handler"
	"github.com/passop/passop-api/internal/api/middleware"
	"github.com/passop/passop-api/internal/core/ports"
	"github.com/passop/passop-api/internal/infrastructure/config"
)

const (
	bodyLimit     = "1M"
	authRateBurst = 10
)

// Deps carries everything the router needs. Services are constructed by the
// caller so the router can be exercised without live databases.
type Deps struct {
	AuthService       ports.AuthService
	CredentialService ports.CredentialService
	Tokens            ports.TokenVerifier
	// Checks are pinged by GET /health/ready, keyed by dependency name.
	Checks map[string]handler.Pinger
	HTTP   config.HTTPConfig
	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// HTTP metrics go to a per-router registry; /metrics also gathers the
	// default registry that holds the domain counters.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "passop",
		Registerer: reg,
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: allowOrigins(deps.HTTP.AllowOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	credentialHandler := handler.NewCredentialHandler(deps.CredentialService)
	healthHandler := handler.NewHealthHandler(deps.Checks)
	requireAuth := middleware.Auth(deps.Tokens)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	if deps.HTTP.AuthRateLimit > 0 {
		auth.Use(authRateLimiter(deps.HTTP.AuthRateLimit))
	}
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// --- Credential routes (owner-scoped) ---
	e.POST("/add", credentialHandler.Add, requireAuth)
	e.GET("/passwords", credentialHandler.List, requireAuth)
	e.DELETE("/delete/:id", credentialHandler.Delete, requireAuth)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// authRateLimiter is a per-client-IP token bucket for the unauthenticated routes.
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     authRateBurst,
		ExpiresIn: 3 * time.Minute,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
		},
	})
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
