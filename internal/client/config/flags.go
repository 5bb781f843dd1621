package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   base URL of the dashboard API
//	-i int      health check interval (seconds)
//	-d string   path of the local database
//	-l string   log level
//	-o string   directory for exports and backups
//
// os.Args is filtered with flagx.FilterArgs so flags owned by other loaders
// do not cause a parse error.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-d", "-l", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "base URL of the dashboard API")
	healthInterval := fs.Int("i", int(cfg.HealthCheckInterval.Seconds()), "health check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.ExportDir, "o", cfg.ExportDir, "directory for exports and backups")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.HealthCheckInterval = time.Duration(*healthInterval) * time.Second
}
