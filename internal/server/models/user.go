// Package models contains the server-side data model shared by repositories
// and services.
package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID            string
	FirstName     string
	LastName      string
	UserName      string
	Email         string
	Phone         string
	Role          Role
	PasswordHash  string
	EmailVerified bool
	// Keyholders are secondary contact phone numbers used as an out-of-band
	// channel for one-time codes during account recovery.
	Keyholders []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
