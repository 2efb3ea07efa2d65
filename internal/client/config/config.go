package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the vaultshare CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - AccessToken: bearer token; when set it replaces the one saved by "login".
//   - DatabasePath: local SQLite file with the saved token and links.
//   - DownloadDir: directory that downloaded files are written to.
//   - RequestTimeout: deadline applied to every call.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	DatabasePath       string
	DownloadDir        string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "vaultshare.db"
	c.DownloadDir = "downloads"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
