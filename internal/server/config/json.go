package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vaultshare/internal/flagx"
	"github.com/dmitrijs2005/vaultshare/internal/timex"
)

// JsonConfig is the on-disk shape of the server config. Only keys present
// in the file override the current values.
type JsonConfig struct {
	EndpointAddrGRPC    *string         `json:"endpoint_addr_grpc"`
	StorageMode         *string         `json:"storage_mode"`
	DatabaseDSN         *string         `json:"database_dsn"`
	SecretKey           *string         `json:"secret_key"`
	MasterKey           *string         `json:"master_key"`
	CipherAlgorithm     *string         `json:"cipher_algorithm"`
	S3RootUser          *string         `json:"s3_root_user"`
	S3RootPassword      *string         `json:"s3_root_password"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	TOTPIssuer          *string         `json:"totp_issuer"`
	StepUpSkew          *uint           `json:"step_up_skew"`
	PendingOperationTTL *timex.Duration `json:"pending_operation_ttl"`
	MaxUploadBytes      *int64          `json:"max_upload_bytes"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// $VAULTSHARE_CONFIG). Without a path it does nothing. An unreadable file or
// invalid JSON panics: the server must not start on a half-read config.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.StorageMode, c.StorageMode)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.MasterKey, c.MasterKey)
	setString(&config.CipherAlgorithm, c.CipherAlgorithm)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.TOTPIssuer, c.TOTPIssuer)
	setString(&config.LogLevel, c.LogLevel)
	if c.StepUpSkew != nil {
		config.StepUpSkew = *c.StepUpSkew
	}
	if c.PendingOperationTTL != nil {
		config.PendingOperationTTL = c.PendingOperationTTL.Duration
	}
	if c.MaxUploadBytes != nil {
		config.MaxUploadBytes = *c.MaxUploadBytes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
