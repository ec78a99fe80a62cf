package models

import "time"

// RefreshToken is stored hashed; the raw value is only ever returned to the
// client once, at issue time.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
