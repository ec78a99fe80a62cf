// Package otp stores short-lived one-time codes keyed by purpose and
// subject. Codes are single-use: the first presentation attempt, right or
// wrong, consumes the stored value.
package otp

import (
	"context"
	"crypto/subtle"
	"time"
)

// Purpose namespaces codes so a registration code can never be replayed
// against a password reset.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password_reset"
)

type Store interface {
	// Put stores the code for the subject, replacing any outstanding one.
	Put(ctx context.Context, purpose Purpose, subject, code string, ttl time.Duration) error
	// Consume removes the stored code and reports whether it matched.
	// Any attempt spends the code, so a mismatch forces a resend and a
	// code can verify at most once no matter how many requests race.
	Consume(ctx context.Context, purpose Purpose, subject, code string) (bool, error)
}

func codesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
