// Package config handles configuration for the Daybook client, applying
// defaults, an optional JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the Daybook client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend API.
//   - DatabaseDSN: path to the local SQLite database.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerEndpointAddr  string
	DatabaseDSN         string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "daybook.db"
	c.OnlineCheckInterval = 3 * time.Second
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
