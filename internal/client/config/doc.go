// Package config loads runtime configuration for the vaultshare CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c / -config or $VAULTSHARE_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-t string   access token
//	-d string   local database file
//	-o string   download directory
//	-r int      request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "eyJ...",
//	  "database_path": "vaultshare.db",
//	  "download_dir": "downloads",
//	  "request_timeout": "30s"
//	}
package config
