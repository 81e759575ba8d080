package config

import "time"

// Config holds runtime settings for the wsdrive CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP API.
//   - Workspace: workspace selected at startup; "use" switches it.
//   - RequestTimeout: per-request deadline for API calls.
//   - DownloadDir: directory under the working directory for "get".
type Config struct {
	ServerURL      string
	Workspace      string
	RequestTimeout time.Duration
	DownloadDir    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Workspace = ""
	c.RequestTimeout = 30 * time.Second
	c.DownloadDir = "downloads"
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
