// Package models defines the client-side views of the Guardget API resources.
// Field names mirror the JSON the backend emits.
package models

import "time"

// User is the profile snapshot returned by login and getme.
type User struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	UserName      string    `json:"username"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	Keyholders    []string  `json:"keyholders"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TokenPair is issued on login and OTP verification.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Incident describes a stolen/missing report attached to a device.
type Incident struct {
	Location     string    `json:"location"`
	Country      string    `json:"country,omitempty"`
	State        string    `json:"state,omitempty"`
	Date         time.Time `json:"date"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	Description  string    `json:"description,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
}

// Device is a registered device as the backend reports it.
type Device struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	IMEI1        string    `json:"imei1,omitempty"`
	IMEI2        string    `json:"imei2,omitempty"`
	SerialNumber string    `json:"serialNumber,omitempty"`
	Status       string    `json:"status"`
	Incident     *Incident `json:"incident,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CheckResult is the answer to an anonymous identifier lookup. Incident is
// only present while the device is reported stolen or missing.
type CheckResult struct {
	Found    bool      `json:"found"`
	Name     string    `json:"name,omitempty"`
	Type     string    `json:"type,omitempty"`
	Status   string    `json:"status,omitempty"`
	Reported bool      `json:"reported"`
	Incident *Incident `json:"incident,omitempty"`
}

// Transfer is a pending or settled ownership transfer.
type Transfer struct {
	ID             string     `json:"id"`
	DeviceID       string     `json:"deviceId"`
	RecipientEmail string     `json:"recipientEmail,omitempty"`
	RecipientPhone string     `json:"recipientPhone,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty"`
}

// Subscription is the user's current paid period.
type Subscription struct {
	ID            string    `json:"id"`
	PlanID        string    `json:"planId"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	AutoRenew     bool      `json:"autoRenew"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
}

// Receipt is a payment record; HasDocument signals a downloadable PDF.
type Receipt struct {
	ID          string    `json:"id"`
	PlanID      string    `json:"planId"`
	Months      int       `json:"months"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference"`
	HasDocument bool      `json:"hasDocument"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Checkout is the server's answer to a payment initiation.
type Checkout struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkoutUrl"`
	Amount      int64  `json:"amount"`
}

// Profile bundles the getme response.
type Profile struct {
	User         User          `json:"user"`
	DeviceCount  int           `json:"deviceCount"`
	Subscription *Subscription `json:"subscription,omitempty"`
	Plan         *Plan         `json:"plan,omitempty"`
}
