// Package config provides environment-based configuration for the bot service.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the bot service.
type Config struct {
	// Telegram configuration
	BotToken    string
	TelegramAPI string
	PollTimeout time.Duration

	// Google Sheets configuration
	SpreadsheetID string
	// CredsJSON is the base64-encoded service account document,
	// exactly as staged by the deployment pipeline.
	CredsJSON string

	// HTTP server configuration (health checks)
	HTTPHost string
	HTTPPort int

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration

	// Logging
	LogLevel slog.Level
	LogJSON  bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:        getEnv("BOT_TOKEN", ""),
		TelegramAPI:     getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		PollTimeout:     getDurationEnv("POLL_TIMEOUT", 50*time.Second),
		SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
		CredsJSON:       getEnv("GOOGLE_CREDS_JSON", ""),
		HTTPHost:        getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:        getIntEnv("HTTP_PORT", 8080),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        getLevelEnv("LOG_LEVEL", slog.LevelInfo),
		LogJSON:         getBoolEnv("LOG_JSON", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("SPREADSHEET_ID is required")
	}
	if c.CredsJSON == "" {
		return fmt.Errorf("GOOGLE_CREDS_JSON is required")
	}
	return nil
}

// LoadWithDefaults loads configuration with defaults for development.
// It does not validate required fields, useful for testing.
func LoadWithDefaults() *Config {
	return &Config{
		BotToken:        getEnv("BOT_TOKEN", "test-token"),
		TelegramAPI:     getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		PollTimeout:     getDurationEnv("POLL_TIMEOUT", 50*time.Second),
		SpreadsheetID:   getEnv("SPREADSHEET_ID", "test-spreadsheet"),
		CredsJSON:       getEnv("GOOGLE_CREDS_JSON", ""),
		HTTPHost:        getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:        getIntEnv("HTTP_PORT", 8080),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        getLevelEnv("LOG_LEVEL", slog.LevelInfo),
		LogJSON:         getBoolEnv("LOG_JSON", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getLevelEnv(key string, defaultValue slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultValue
	}
}
