// Package models defines server-side data models persisted in the database.
package models

import "time"

// KeyRecord is a user's key-encryption key. WrappedMaterial is the KEK sealed
// by the secret backend; the raw KEK is never stored.
type KeyRecord struct {
	ID              string
	OwnerID         string
	Algorithm       string
	WrappedMaterial []byte
	CreatedAt       time.Time
	RevokedAt       *time.Time
}

// Revoked reports whether the key may no longer unwrap DEKs.
func (k *KeyRecord) Revoked() bool {
	return k.RevokedAt != nil
}
