// Package common contains shared constants and sentinel errors used across
// vaultshare components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultMimeType is stored when neither the caller nor content sniffing
// yields a media type.
const DefaultMimeType = "application/octet-stream"
