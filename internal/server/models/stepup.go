package models

import "time"

// TOTPEnrollment holds a user's one-time-code secret, sealed by the secret
// backend. LastUsedStep is the highest accepted 30 s step and only grows.
type TOTPEnrollment struct {
	UserID       string
	SealedSecret []byte
	Confirmed    bool
	LastUsedStep int64
	CreatedAt    time.Time
}

// PendingOperation is the first half of a two-phase step-up operation.
type PendingOperation struct {
	Token     string
	UserID    string
	Kind      string
	Payload   []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the operation can no longer be completed at now.
func (p *PendingOperation) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}
