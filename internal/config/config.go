// Package config assembles runtime settings for the Secure Vault CLI from
// four layers: built-in defaults, an optional JSON file, environment
// variables, and command-line flags. Later layers win.
package config

import "time"

// Config holds runtime settings for the Secure Vault CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the Authentication & Vault API.
//   - CheckDebounce: quiet period before a username-availability probe fires.
//   - SessionDBPath: path of the sqlite file holding the persisted session;
//     empty means "resolve under the user config dir at startup".
type Config struct {
	ServerBaseURL string        `env:"SERVER_BASE_URL"`
	CheckDebounce time.Duration `env:"CHECK_DEBOUNCE"`
	SessionDBPath string        `env:"SESSION_DB_PATH"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080"
	c.CheckDebounce = 800 * time.Millisecond
	c.SessionDBPath = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), environment variables, and command-line flags, in that
// order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
