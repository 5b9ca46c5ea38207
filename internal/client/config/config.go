// Package config holds the CLI client settings: defaults, an optional JSON
// overlay and command-line flags, applied in that order.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP API.
//   - TokenFile: where the bearer token from the last login is kept.
//   - RequestTimeout: upper bound for one API call.
type Config struct {
	ServerURL      string
	TokenFile      string
	RequestTimeout time.Duration
}

// DefaultTokenFileName is created in the user's home directory.
const DefaultTokenFileName = ".bizapi-token"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.TokenFile = defaultTokenFile()
	c.RequestTimeout = 10 * time.Second
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultTokenFileName
	}
	return filepath.Join(home, DefaultTokenFileName)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
