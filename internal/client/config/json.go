package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vaultshare/internal/flagx"
	"github.com/dmitrijs2005/vaultshare/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the current value alone.
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	AccessToken        *string         `json:"access_token"`
	DatabasePath       *string         `json:"database_path"`
	DownloadDir        *string         `json:"download_dir"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values from the file named by -c/-config
// (or $VAULTSHARE_CONFIG). It panics on read or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.AccessToken != nil {
		cfg.AccessToken = *jc.AccessToken
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.DownloadDir != nil {
		cfg.DownloadDir = *jc.DownloadDir
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
