package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultshare/internal/flagx"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":    "www.example:9000",
		"storage_mode":          "memory",
		"database_dsn":          "vault.db",
		"secret_key":            "my_secret_key",
		"master_key":            "pass",
		"cipher_algorithm":      "chacha20-poly1305",
		"s3_root_user":          "user",
		"s3_root_password":      "password",
		"s3_bucket":             "bucket",
		"s3_region":             "region",
		"s3_base_endpoint":      "base_endpoint",
		"totp_issuer":           "acme",
		"step_up_skew":          3,
		"pending_operation_ttl": "90s",
		"max_upload_bytes":      2048,
		"log_level":             "warn",
	})
	pathEnv := writeTempJSON(t, dir, "env.json", map[string]any{
		"endpoint_addr_grpc": "env:1",
	})

	t.Run("loads from json", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnvVar, "")
		c := &Config{}
		parseJson(c, []string{"-config", pathFlag})

		assert.Equal(t, "www.example:9000", c.EndpointAddrGRPC)
		assert.Equal(t, "memory", c.StorageMode)
		assert.Equal(t, "warn", c.LogLevel)
		assert.Equal(t, "vault.db", c.DatabaseDSN)
		assert.Equal(t, "my_secret_key", c.SecretKey)
		assert.Equal(t, "pass", c.MasterKey)
		assert.Equal(t, "chacha20-poly1305", c.CipherAlgorithm)
		assert.Equal(t, "user", c.S3RootUser)
		assert.Equal(t, "password", c.S3RootPassword)
		assert.Equal(t, "bucket", c.S3Bucket)
		assert.Equal(t, "region", c.S3Region)
		assert.Equal(t, "base_endpoint", c.S3BaseEndpoint)
		assert.Equal(t, "acme", c.TOTPIssuer)
		assert.Equal(t, uint(3), c.StepUpSkew)
		assert.Equal(t, 90*time.Second, c.PendingOperationTTL)
		assert.Equal(t, int64(2048), c.MaxUploadBytes)
	})

	t.Run("env path used when no flag", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnvVar, pathEnv)
		c := &Config{}
		c.LoadDefaults()
		parseJson(c, nil)

		assert.Equal(t, "env:1", c.EndpointAddrGRPC)
		// absent keys keep their previous value
		assert.Equal(t, "vault", c.S3Bucket)
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnvVar, pathEnv)
		c := &Config{}
		parseJson(c, []string{"-c", pathFlag})
		assert.Equal(t, "www.example:9000", c.EndpointAddrGRPC)
	})

	t.Run("no path is a no-op", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnvVar, "")
		c := &Config{}
		c.LoadDefaults()
		want := *c
		parseJson(c, []string{"-a", ":1"})
		assert.Equal(t, want, *c)
	})
}

func Test_parseJson_Errors(t *testing.T) {
	t.Setenv(flagx.ConfigEnvVar, "")

	t.Run("missing file panics", func(t *testing.T) {
		assert.Panics(t, func() {
			parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		})
	})

	t.Run("invalid json panics", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		assert.Panics(t, func() { parseJson(&Config{}, []string{"-c", path}) })
	})
}
