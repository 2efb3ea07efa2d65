package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	t.Setenv("VAULTSHARE_CONFIG", "")

	t.Run("overlays present keys only", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"server_endpoint_addr": "www.example:9000",
			"request_timeout":      "10s",
		})

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-config", path})

		assert.Equal(t, "www.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "vaultshare.db", cfg.DatabasePath)
	})

	t.Run("env path", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"access_token": "from-env"})
		t.Setenv("VAULTSHARE_CONFIG", path)

		cfg := &Config{}
		parseJson(cfg, nil)
		assert.Equal(t, "from-env", cfg.AccessToken)
	})

	t.Run("no file leaves config alone", func(t *testing.T) {
		cfg := &Config{ServerEndpointAddr: "defaults:1234"}
		parseJson(cfg, []string{"-a", "x"})
		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}) })
	})
}
