package models

import "time"

type ReceiptStatus string

const (
	ReceiptStatusCompleted ReceiptStatus = "completed"
	ReceiptStatusPending   ReceiptStatus = "pending"
	ReceiptStatusFailed    ReceiptStatus = "failed"
)

// Receipt records one payment attempt. Reference is the checkout provider's
// transaction reference; verification of a reference is idempotent, so a
// completed receipt never transitions again.
type Receipt struct {
	ID     string
	UserID string
	PlanID string
	// Months is the number of subscription months this payment covers.
	Months    int
	Amount    int64
	Status    ReceiptStatus
	Reference string
	// DocumentKey points at the stored PDF in object storage, when present.
	DocumentKey string
	CreatedAt   time.Time
}
