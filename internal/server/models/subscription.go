package models

import "time"

// Plan is a purchasable subscription tier. DeviceLimit bounds how many
// devices a subscriber may register.
type Plan struct {
	ID          string
	Name        string
	DeviceLimit int
	// Price is expressed in minor currency units.
	Price       int64
	Description string
}

// FreeTierDeviceLimit applies to users without an active subscription.
const FreeTierDeviceLimit = 1

type Subscription struct {
	ID            string
	UserID        string
	PlanID        string
	StartDate     time.Time
	EndDate       time.Time
	AutoRenew     bool
	PaymentMethod string
	CreatedAt     time.Time
}

// ActiveAt reports whether the subscription covers the given instant.
func (s *Subscription) ActiveAt(t time.Time) bool {
	return !t.Before(s.StartDate) && t.Before(s.EndDate)
}
