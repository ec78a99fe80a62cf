// Package config loads runtime settings for the Guardget CLI from defaults,
// an optional JSON file and command-line flags, in that order.
package config

import "time"

// Config holds runtime settings for the Guardget CLI.
//
// Fields:
//   - BaseURL: base URL of the backend REST API, including the version prefix.
//   - RequestTimeout: per-request deadline applied by the API client.
//   - SessionFile: path of the file the session (token + user) is kept in.
//   - CacheFile: path of the local SQLite device cache.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	SessionFile    string
	CacheFile      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://localhost:3124/api/v1"
	c.RequestTimeout = 15 * time.Second
	c.SessionFile = "session.json"
	c.CacheFile = "guardget.db"
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
