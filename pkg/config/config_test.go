package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8089" {
		t.Errorf("Expected Port to be 8089, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.GME.BaseURL == "" {
		t.Error("Expected GME BaseURL default to be set")
	}

	if cfg.Fetch.Concurrency != 4 {
		t.Errorf("Expected Fetch.Concurrency to be 4, got %d", cfg.Fetch.Concurrency)
	}

	if cfg.GME.Timeout != 30*time.Second {
		t.Errorf("Expected GME.Timeout to be 30s, got %s", cfg.GME.Timeout)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("FETCH_CONCURRENCY", "8")
	os.Setenv("LOG_LEVEL", "info")
	os.Setenv("SCHEDULER_MARKETS", "MGP, MI1 ,TEE")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("FETCH_CONCURRENCY")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SCHEDULER_MARKETS")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Fetch.Concurrency != 8 {
		t.Errorf("Expected Fetch.Concurrency to be 8, got %d", cfg.Fetch.Concurrency)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel to be info, got %s", cfg.LogLevel)
	}

	want := []string{"MGP", "MI1", "TEE"}
	if len(cfg.Scheduler.Markets) != len(want) {
		t.Fatalf("Expected %d scheduler markets, got %d", len(want), len(cfg.Scheduler.Markets))
	}
	for i, m := range want {
		if cfg.Scheduler.Markets[i] != m {
			t.Errorf("Scheduler.Markets[%d] = %s, want %s", i, cfg.Scheduler.Markets[i], m)
		}
	}
}

func TestValidateBadEnv(t *testing.T) {
	os.Setenv("ENV", "testing")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for invalid ENV, got nil")
	}
}

func TestRequireCredentials(t *testing.T) {
	os.Unsetenv("GME_USERNAME")
	os.Unsetenv("GME_PASSWORD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if err := cfg.RequireCredentials(); err == nil {
		t.Error("Expected error when credentials are missing, got nil")
	}

	os.Setenv("GME_USERNAME", "user")
	os.Setenv("GME_PASSWORD", "pass")
	defer func() {
		os.Unsetenv("GME_USERNAME")
		os.Unsetenv("GME_PASSWORD")
	}()

	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if err := cfg.RequireCredentials(); err != nil {
		t.Errorf("RequireCredentials() failed with credentials set: %v", err)
	}
}
