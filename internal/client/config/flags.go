package config

import (
	"flag"
	"os"
	"time"

	"github.com/baleriaa/493/internal/flagx"
)

// ValueFlags are the flags that consume the following argument. The CLI uses
// them to find its subcommand among os.Args.
var ValueFlags = []string{"-a", "-f", "-t", "-c", "-config"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the API server
//	-f string   token file
//	-t int      request timeout (in seconds)
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the API server")
	fs.StringVar(&cfg.TokenFile, "f", cfg.TokenFile, "token file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
