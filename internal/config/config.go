// Package config handles runtime configuration for keepsafe,
// including defaults, .env/environment overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the keepsafe application.
//
// Fields:
//   - StorageDriver: durable store backend, "sqlite" (default) or "postgres".
//   - DatabaseDSN: SQLite file path/URI or PostgreSQL DSN, per driver.
//   - SessionDuration: how long a session stays unlocked after activity.
//   - MinPasswordLength: shortest password accepted at registration.
//   - TickInterval: how often the countdown is republished for display.
type Config struct {
	StorageDriver     string
	DatabaseDSN       string
	SessionDuration   time.Duration
	MinPasswordLength int
	TickInterval      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StorageDriver = "sqlite"
	c.DatabaseDSN = "keepsafe.db"
	c.SessionDuration = time.Hour
	c.MinPasswordLength = 8
	c.TickInterval = time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment (optionally loaded from a .env file) and finally
// from command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
