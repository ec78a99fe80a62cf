package models

import "time"

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusAccepted  TransferStatus = "accepted"
	TransferStatusCancelled TransferStatus = "cancelled"
	TransferStatusExpired   TransferStatus = "expired"
)

// Transfer is a two-party ownership handoff. The initiator remains owner of
// record until the recipient accepts; a device carries at most one pending
// transfer at a time.
type Transfer struct {
	ID             string
	DeviceID       string
	FromUserID     string
	RecipientEmail string
	RecipientPhone string
	Status         TransferStatus
	CreatedAt      time.Time
	ExpiresAt      time.Time
	AcceptedBy     string
	AcceptedAt     *time.Time
}

// Expired reports whether the transfer window has closed at instant t.
func (tr *Transfer) Expired(t time.Time) bool {
	return !t.Before(tr.ExpiresAt)
}
