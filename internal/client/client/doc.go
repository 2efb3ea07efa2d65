// Package client talks to the vaultshare server on behalf of the CLI.
//
// GRPCClient wraps rpc.VaultClient: it keeps one connection, attaches the
// access token to every call through a unary interceptor and translates
// gRPC status codes back into the sentinels of package common, so callers
// match failures with errors.Is exactly as the server code does.
//
// InitDatabase opens the CLI's local SQLite database and applies the
// embedded goose migrations.
package client
