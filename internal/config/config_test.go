package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseURL != "https://api.propsight.io" {
		t.Errorf("Expected default base URL, got %q", cfg.BaseURL)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Timeout())
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("Expected 2 retries, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay() != time.Second {
		t.Errorf("Expected 1s retry delay, got %v", cfg.RetryDelay())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PROPSIGHT_BASE_URL", "http://localhost:8090")
	t.Setenv("PROPSIGHT_TOKEN", "tkn-1")
	t.Setenv("PROPSIGHT_TIMEOUT_MS", "5000")
	t.Setenv("PROPSIGHT_NO_CACHE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseURL != "http://localhost:8090" {
		t.Errorf("Expected overridden base URL, got %q", cfg.BaseURL)
	}
	if cfg.Token != "tkn-1" {
		t.Errorf("Expected token 'tkn-1', got %q", cfg.Token)
	}
	if cfg.Timeout() != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.Timeout())
	}
	if !cfg.NoCache {
		t.Error("Expected NoCache to be set")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("PROPSIGHT_TIMEOUT_MS", "0")
	if _, err := Load(); err == nil {
		t.Error("Expected error for zero timeout")
	}

	t.Setenv("PROPSIGHT_TIMEOUT_MS", "1000")
	t.Setenv("PROPSIGHT_MAX_RETRIES", "-1")
	if _, err := Load(); err == nil {
		t.Error("Expected error for negative retries")
	}
}
