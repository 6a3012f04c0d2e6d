package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=5000"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=168h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	Mongo MongoConfig
	Redis RedisConfig
	HTTP  HTTPConfig
	Login LoginConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=passop"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type HTTPConfig struct {
	// AllowOrigins is the CORS origin list; "*" keeps the API open to any origin.
	AllowOrigins  []string `env:"CORS_ALLOW_ORIGINS, default=*"`
	AuthRateLimit float64  `env:"AUTH_RATE_LIMIT, default=5"`
}

type LoginConfig struct {
	MaxFailures int           `env:"LOGIN_MAX_FAILURES, default=5"`
	Lockout     time.Duration `env:"LOGIN_LOCKOUT,      default=15m"`
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
