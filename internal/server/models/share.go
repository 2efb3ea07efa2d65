package models

import "time"

// ShareGroup is a link-addressable bundle of files owned by one user.
type ShareGroup struct {
	ID            string
	OwnerID       string
	LinkToken     string
	PasswordHash  string
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	DownloadCount int64
}

// Expired reports whether the group is past its expiry at now.
// A group without ExpiresAt never expires.
func (g *ShareGroup) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// HasPassword reports whether the group is password protected.
func (g *ShareGroup) HasPassword() bool {
	return g.PasswordHash != ""
}

// SharedFile links a file into a share group.
type SharedFile struct {
	ShareGroupID string
	FileID       string
}

// SharedUser is one entry of a share group's allow-list.
type SharedUser struct {
	ShareGroupID string
	UserID       string
}
