package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// GME API
	GME GMEConfig

	// Fetching
	Fetch FetchConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// GMEConfig holds GME (Gestore dei Mercati Energetici) API configuration
type GMEConfig struct {
	Username string
	Password string
	BaseURL  string

	// Client-side quota limits for the public results API
	RateLimit float64 // requests per second
	RateBurst int
	Timeout   time.Duration
}

// FetchConfig controls range fetches
type FetchConfig struct {
	Concurrency int // concurrent day fetches per range
}

// SchedulerConfig holds daily collection settings
type SchedulerConfig struct {
	Markets  []string // market ids collected by the daily job
	DataDir  string   // CSV snapshot directory
	CronSpec string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		GME: GMEConfig{
			Username:  getEnv("GME_USERNAME", ""),
			Password:  getEnv("GME_PASSWORD", ""),
			BaseURL:   getEnv("GME_BASE_URL", "https://api.mercatoelettrico.org/request/api/v1"),
			RateLimit: getEnvAsFloat("GME_RATE_LIMIT", 2.0),
			RateBurst: getEnvAsInt("GME_RATE_BURST", 4),
			Timeout:   getEnvAsDuration("GME_TIMEOUT", "30s"),
		},

		Fetch: FetchConfig{
			Concurrency: getEnvAsInt("FETCH_CONCURRENCY", 4),
		},

		Scheduler: SchedulerConfig{
			Markets:  splitList(getEnv("SCHEDULER_MARKETS", "MGP,MSD,MB")),
			DataDir:  getEnv("SCHEDULER_DATA_DIR", "data"),
			CronSpec: getEnv("SCHEDULER_CRON", "0 0 9 * * *"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.GME.BaseURL == "" {
		return fmt.Errorf("GME_BASE_URL is required")
	}

	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}

	return nil
}

// RequireCredentials fails when GME credentials are not configured.
// Called by commands that actually hit the upstream API.
func (c *Config) RequireCredentials() error {
	if c.GME.Username == "" || c.GME.Password == "" {
		return fmt.Errorf("GME_USERNAME and GME_PASSWORD must be set")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
