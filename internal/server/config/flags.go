package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/flagx"
)

// parseFlags overlays the highest-precedence settings from the command line.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-b string   public base URL used in mailed links
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-t int      session lifetime, minutes
//	-l string   legacy JSON data file
//
// Only these flags are taken from os.Args (see flagx.FilterArgs), so the
// -c and -env flags consumed by the other layers never collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-d", "-s", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.BaseURL, "b", config.BaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionLifetime := fs.Int("t", int(config.SessionLifetime.Minutes()), "session lifetime (in minutes)")
	fs.StringVar(&config.LegacyDataFile, "l", config.LegacyDataFile, "legacy data.json to import at startup")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionLifetime = time.Duration(*sessionLifetime) * time.Minute
}
