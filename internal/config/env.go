package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/keepsafe-dev/keepsafe/internal/flagx"
)

// parseEnv overlays Config with values from the process environment.
//
// If a .env file path was given via -e/-env (or a ./.env file exists), it is
// loaded first without overriding variables already set in the environment.
//
// Recognized variables:
//
//	KEEPSAFE_STORAGE_DRIVER       "sqlite" | "postgres"
//	KEEPSAFE_DATABASE_DSN         driver-specific DSN
//	KEEPSAFE_SESSION_DURATION     Go duration string, e.g. "1h" or "90s"
//	KEEPSAFE_MIN_PASSWORD_LENGTH  integer
func parseEnv(cfg *Config) {
	envFile := flagx.EnvFileFlags()
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	if v := os.Getenv("KEEPSAFE_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = v
	}
	if v := os.Getenv("KEEPSAFE_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("KEEPSAFE_SESSION_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionDuration = d
		}
	}
	if v := os.Getenv("KEEPSAFE_MIN_PASSWORD_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinPasswordLength = n
		}
	}
}
