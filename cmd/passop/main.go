// Command passop runs the password manager API.
//
// @title                       passop API
// @version                     1.0
// @description                 Personal password manager: user auth and owner-scoped credential storage.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/passop/passop-api/internal/api"
	"github.com/passop/passop-api/internal/api/handler"
	"github.com/passop/passop-api/internal/core/service"
	"github.com/passop/passop-api/internal/infrastructure/config"
	"github.com/passop/passop-api/internal/infrastructure/db/mongo"
	"github.com/passop/passop-api/internal/infrastructure/db/redis"
	"github.com/passop/passop-api/internal/infrastructure/token"
	"github.com/passop/passop-api/pkg/logger"
)

var version = "dev" // set by the linker

const shutdownTimeout = 10 * time.Second

var envFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra has already printed err; this records it once logging is up.
		l := logger.Get()
		l.Error().Err(err).Msg("passop exited with error")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passop",
		Short: "passop password manager API",
		Long: `passop stores per-user site credentials behind a JSON API.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Version = version
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnsureIndexes(cmd.Context())
		},
	})

	return cmd
}

func setup(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx, envFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "passop-api",
	})
	return cfg, log, nil
}

func runEnsureIndexes(ctx context.Context) error {
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("indexes ensured")
	return nil
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Error().Err(err).Msg("mongo unavailable")
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	redisClient, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable")
		return err
	}
	defer func() { _ = redisClient.Close() }()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	tokens, err := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	throttle := redis.NewLoginThrottle(redisClient, cfg.Login.MaxFailures, cfg.Login.Lockout)
	authService := service.NewAuthService(mongo.NewUserRepository(db), tokens, throttle, log)
	credentialService := service.NewCredentialService(mongo.NewCredentialRepository(db), log)

	e := api.NewRouter(api.Deps{
		AuthService:       authService,
		CredentialService: credentialService,
		Tokens:            tokens,
		Checks: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
			"redis":   handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
		HTTP:   cfg.HTTP,
		Logger: log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			log.Error().Err(err).Msg("http server stopped")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
