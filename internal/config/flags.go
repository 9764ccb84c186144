package config

import (
	"flag"
	"os"
	"time"

	"github.com/keepsafe-dev/keepsafe/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   database DSN (default from Config)
//	-r string   storage driver: sqlite or postgres
//	-t int      session duration in seconds
//	-p int      minimum password length
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-r", "-t", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.StorageDriver, "r", cfg.StorageDriver, "storage driver (sqlite or postgres)")
	sessionSeconds := fs.Int("t", int(cfg.SessionDuration.Seconds()), "session duration (in seconds)")
	fs.IntVar(&cfg.MinPasswordLength, "p", cfg.MinPasswordLength, "minimum password length")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionDuration = time.Duration(*sessionSeconds) * time.Second
}
