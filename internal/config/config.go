// Package config reads service settings from environment variables, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// CacheDir is the on-disk cache root. Empty means in-memory only.
	CacheDir string

	// Display session defaults.
	DefaultLang     string
	DefaultLocation string

	// Upstream API configuration.
	UpstreamTimeout time.Duration
	AlmanacBaseURL  string
	AlmanacAPIKey   string
}

// Load reads configuration, applying defaults where unset. A .env file in
// the working directory is merged in first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CacheDir: envOrDefault("CACHE_DIR", "data/cache"),

		DefaultLang:     envOrDefault("DEFAULT_LANG", "zh"),
		DefaultLocation: os.Getenv("DEFAULT_LOCATION"),

		UpstreamTimeout: upstreamTimeout,
		AlmanacBaseURL:  envOrDefault("ALMANAC_BASE_URL", "https://api.doctorfate.net/query"),
		AlmanacAPIKey:   envOrDefault("ALMANAC_API_KEY", "PowerLife-APP-2025-v1"),
	}

	if cfg.DefaultLang != "zh" && cfg.DefaultLang != "en" {
		return nil, errors.New("DEFAULT_LANG must be zh or en")
	}
	if cfg.AlmanacBaseURL == "" {
		return nil, errors.New("ALMANAC_BASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
