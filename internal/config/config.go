package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the materializer daemon.
type Config struct {
	DatabaseURL     string
	MaterializeTime string // HH:MM, local time of the daily pass
	LogLevel        string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MaterializeTime: strings.TrimSpace(os.Getenv("MATERIALIZE_TIME")),
		LogLevel:        strings.TrimSpace(os.Getenv("LOG_LEVEL")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "tasks.db"
	}
	if cfg.MaterializeTime == "" {
		cfg.MaterializeTime = "00:05"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if _, err := time.Parse("15:04", cfg.MaterializeTime); err != nil {
		return cfg, fmt.Errorf("MATERIALIZE_TIME %q: expected HH:MM", cfg.MaterializeTime)
	}

	return cfg, nil
}
