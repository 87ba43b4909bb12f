package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/flagx"
	"github.com/dmitrijs2005/accessportal/internal/timex"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret
//	-m string   storage backend: postgres | memory
//	-l string   log backend: zap | slog
//	-env string  dev | prod
//	-t int      session TTL, minutes
//	-v int      access validity period, days
//	-w int      expiration warning window, days
//	-cron string sweep schedule (standard 5-field cron)
//
// os.Args is filtered with flagx.FilterArgs first so the JSON config flag
// does not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-m", "-l", "-env", "-t", "-v", "-w", "-cron"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT secret key")
	fs.StringVar(&config.StorageBackend, "m", config.StorageBackend, "storage backend (postgres|memory)")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (zap|slog)")
	fs.StringVar(&config.Env, "env", config.Env, "environment (dev|prod)")
	fs.StringVar(&config.SweepSchedule, "cron", config.SweepSchedule, "sweep schedule")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session TTL (in minutes)")
	validity := fs.Int("v", int(config.ValidityPeriod/timex.Day), "access validity period (in days)")
	warning := fs.Int("w", int(config.WarningWindow/timex.Day), "expiration warning window (in days)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Integer flags are applied only when given, so finer values from JSON
	// or the environment are not truncated.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
		case "v":
			config.ValidityPeriod = time.Duration(*validity) * timex.Day
		case "w":
			config.WarningWindow = time.Duration(*warning) * timex.Day
		}
	})
}
