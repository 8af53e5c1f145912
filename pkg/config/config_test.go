package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Remote.BaseURL != "https://crewz.test/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout 30s, got %v", cfg.Remote.Timeout)
	}
	if cfg.Remote.ClientVersion != "1.0.0" {
		t.Fatalf("unexpected client version %q", cfg.Remote.ClientVersion)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without url or address")
	}
	if cfg.Location.Available() {
		t.Fatalf("location should be unavailable by default")
	}
}

func TestLoad_LocationAndRedis(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvLatitude, "35.4676")
	t.Setenv(EnvLongitude, "-97.5164")
	t.Setenv(EnvRemoteTimeout, "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Redis.Enabled() {
		t.Fatalf("expected redis enabled")
	}
	if !cfg.Location.Available() || *cfg.Location.Latitude != 35.4676 || *cfg.Location.Longitude != -97.5164 {
		t.Fatalf("unexpected location %+v", cfg.Location)
	}
	if cfg.Remote.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.Remote.Timeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RelativeBaseURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRemoteBaseURL, "crewz.test/api")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative base url to be rejected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvRemoteBaseURL, "https://crewz.test/api/")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
