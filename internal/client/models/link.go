// Package models holds the CLI's locally persisted types.
package models

import "time"

// Link is a share link saved under a local name so it can be reopened
// without retyping the token.
type Link struct {
	Name      string
	LinkToken string
	Note      string
	CreatedAt time.Time
}
