package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "4000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BaseURL != "http://localhost:4000" {
		t.Fatalf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.GoogleCallbackURL != "http://localhost:4000/auth/google/callback" {
		t.Fatalf("unexpected google callback %q", cfg.GoogleCallbackURL)
	}
	if cfg.AuthFailureURL != "http://localhost:8001/?error=oauth" {
		t.Fatalf("unexpected failure url %q", cfg.AuthFailureURL)
	}
	if cfg.JWTTTL != 7*24*time.Hour {
		t.Fatalf("unexpected jwt ttl %s", cfg.JWTTTL)
	}
	if cfg.StoreBackend != "file" || cfg.DataFile != "users.json" {
		t.Fatalf("unexpected store settings %q %q", cfg.StoreBackend, cfg.DataFile)
	}
	if cfg.SMTPConfigured() {
		t.Fatalf("smtp should not be configured by default")
	}
}

func TestLoadConfig_RejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for default secret in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadConfig_BackendRequirements(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Redis")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without REDIS_ADDR")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreBackend != "redis" {
		t.Fatalf("expected normalized backend, got %q", cfg.StoreBackend)
	}

	t.Setenv("STORE_BACKEND", "mongo")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadConfig_TrimsTrailingSlashes(t *testing.T) {
	t.Setenv("BASE_URL", "https://api.moveit.app/")
	t.Setenv("FRONTEND_URL", "https://moveit.app/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BaseURL != "https://api.moveit.app" || cfg.FrontendURL != "https://moveit.app" {
		t.Fatalf("unexpected urls %q %q", cfg.BaseURL, cfg.FrontendURL)
	}
	if cfg.FacebookCallbackURL != "https://api.moveit.app/auth/facebook/callback" {
		t.Fatalf("unexpected facebook callback %q", cfg.FacebookCallbackURL)
	}
}
