package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOOKSTORE_SECURITY_JWTSECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Security.JWTSecret != "test-secret" {
		t.Errorf("expected secret from env, got %q", cfg.Security.JWTSecret)
	}
	if cfg.Security.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m access ttl, got %s", cfg.Security.AccessTokenTTL)
	}
	if cfg.Security.RefreshTokenTTL != 168*time.Hour {
		t.Errorf("expected 168h refresh ttl, got %s", cfg.Security.RefreshTokenTTL)
	}
	if cfg.RateLimit.Requests != 20 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("BOOKSTORE_SECURITY_JWTSECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when jwt secret missing")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOOKSTORE_SECURITY_JWTSECRET", "test-secret")
	t.Setenv("BOOKSTORE_HTTP_PORT", "9090")
	t.Setenv("BOOKSTORE_SECURITY_ACCESSTOKENTTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port override 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Security.AccessTokenTTL != 5*time.Minute {
		t.Errorf("expected 5m access ttl, got %s", cfg.Security.AccessTokenTTL)
	}
}
