// Package cli provides the interactive vaultshare command-line client.
//
// It wires configuration, the local SQLite database (saved token and share
// links), the gRPC client and an interactive REPL. Passwords and one-time
// codes are always prompted for, never taken from the command line.
//
// Typical session:
//
//	vs> login eyJhbGciOi...
//	vs (online)> upload ./report.pdf
//	vs (online)> share 6f1c...
//	vs (online)> enroll
//	vs (online)> rotate
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
