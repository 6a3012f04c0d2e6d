package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("expected default port 5000, got %q", cfg.Port)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.Mongo.Database != "passop" {
		t.Fatalf("unexpected mongo db: %q", cfg.Mongo.Database)
	}
	if len(cfg.HTTP.AllowOrigins) != 1 || cfg.HTTP.AllowOrigins[0] != "*" {
		t.Fatalf("unexpected CORS origins: %v", cfg.HTTP.AllowOrigins)
	}
	if cfg.Login.MaxFailures != 5 || cfg.Login.Lockout != 15*time.Minute {
		t.Fatalf("unexpected login settings: %+v", cfg.Login)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env by default")
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	// Restored by t.Setenv once the test ends; godotenv will not overwrite a set value.
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")

	path := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SECRET=from-file\nPORT=9090\nCORS_ALLOW_ORIGINS=https://a.example,https://b.example\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CORS_ALLOW_ORIGINS") })

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.JWTSecret != "from-file" || cfg.Port != "9090" {
		t.Fatalf("env file not applied: %+v", cfg)
	}
	if len(cfg.HTTP.AllowOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.HTTP.AllowOrigins)
	}
}
