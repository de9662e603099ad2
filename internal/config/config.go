// Package config loads process configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDatabasePath   = "./data/bot.db"
	defaultLogLevel       = "info"
	defaultRetries        = 3
	defaultUpdateInterval = 60 * time.Second
	defaultSnapshotDir    = "./data/snapshots"
)

// Config holds all runtime settings for the bot process.
type Config struct {
	TelegramToken  string
	DatabasePath   string
	LogLevel       string
	Headless       bool
	Retries        int
	UpdateInterval time.Duration
	KeepFailures   bool
	SnapshotDir    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first, if present. TELEGRAM_BOT_TOKEN is required;
// everything else has a default.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabasePath:   envOr("DATABASE_PATH", defaultDatabasePath),
		LogLevel:       envOr("LOG_LEVEL", defaultLogLevel),
		Headless:       true,
		Retries:        defaultRetries,
		UpdateInterval: defaultUpdateInterval,
		SnapshotDir:    envOr("SNAPSHOT_DIR", defaultSnapshotDir),
	}
	if cfg.TelegramToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	if v := os.Getenv("SCRAPER_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse SCRAPER_HEADLESS: %w", err)
		}
		cfg.Headless = b
	}
	if v := os.Getenv("SCRAPER_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("parse SCRAPER_RETRIES: %q is not a positive integer", v)
		}
		cfg.Retries = n
	}
	if v := os.Getenv("SCRAPER_UPDATE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse SCRAPER_UPDATE_INTERVAL: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse SCRAPER_UPDATE_INTERVAL: %q must be positive", v)
		}
		cfg.UpdateInterval = d
	}
	if v := os.Getenv("SCRAPER_KEEP_FAILURES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse SCRAPER_KEEP_FAILURES: %w", err)
		}
		cfg.KeepFailures = b
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
