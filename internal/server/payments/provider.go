// Package payments abstracts the hosted-checkout provider. The server only
// needs two operations: obtain a hosted payment page for a reference, and
// verify a reference after the customer returns. Gateway-specific behavior
// stays behind this interface.
package payments

import "context"

// Provider is the contract with the external checkout service.
type Provider interface {
	// InitiateCheckout registers the pending charge and returns the URL the
	// customer is redirected to.
	InitiateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	// VerifyReference asks the provider whether the reference was paid.
	// Providers are expected to answer idempotently for the same reference.
	VerifyReference(ctx context.Context, reference string) (*VerificationResult, error)
}

type CheckoutRequest struct {
	Reference string
	// Amount in minor currency units.
	Amount int64
	Email  string
	// CallbackURL is where the provider sends the customer after payment,
	// with the reference appended as a query parameter.
	CallbackURL string
}

type VerificationResult struct {
	Reference string
	Paid      bool
	Amount    int64
	// Channel is the provider's payment-method label (e.g. "card").
	Channel string
}
