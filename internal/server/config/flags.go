package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-d", "-s", "-k", "-x", "-u", "-p", "-b", "-g", "-e", "-i", "-w", "-o", "-l", "-v"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   storage mode: postgres | memory
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-k string   master key (64 hex chars or passphrase)
//	-x string   cipher algorithm: aes-256-gcm | chacha20-poly1305
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-i string   TOTP issuer
//	-w uint     step-up skew, in 30 s steps
//	-o int      pending operation TTL, minutes
//	-l int      max upload size, bytes
//	-v string   log level (debug|info|warn|error)
//
// Arguments not in the list above are ignored so that the JSON loader and
// other components can share os.Args.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.StorageMode, "m", config.StorageMode, "storage mode (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	fs.StringVar(&config.MasterKey, "k", config.MasterKey, "master key")
	fs.StringVar(&config.CipherAlgorithm, "x", config.CipherAlgorithm, "cipher algorithm")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.TOTPIssuer, "i", config.TOTPIssuer, "TOTP issuer")
	fs.UintVar(&config.StepUpSkew, "w", config.StepUpSkew, "step-up skew (30s steps)")
	pendingTTL := fs.Int("o", int(config.PendingOperationTTL.Minutes()), "pending operation ttl (in minutes)")
	fs.Int64Var(&config.MaxUploadBytes, "l", config.MaxUploadBytes, "max upload size (bytes)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		panic(err)
	}

	config.PendingOperationTTL = time.Duration(*pendingTTL) * time.Minute
}
