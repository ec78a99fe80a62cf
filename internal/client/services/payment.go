package services

import (
	"context"
	"net/url"
	"sync"

	"github.com/guardget/guardget/internal/client/api"
	"github.com/guardget/guardget/internal/client/models"
)

// PaymentState tracks where a checkout stands on the client side.
type PaymentState string

const (
	StateInactive       PaymentState = "inactive"
	StatePendingPayment PaymentState = "pending_payment"
	StateVerifying      PaymentState = "verifying"
	StateActive         PaymentState = "active"
)

type paymentAPI interface {
	InitiatePayment(ctx context.Context, planID string, months int) (*models.Checkout, error)
	VerifyPayment(ctx context.Context, reference string) (*api.PaymentOutcome, error)
}

// PaymentFlow drives a subscription purchase: open a checkout, hand the user
// to the provider, then settle the returned reference. Each reference is
// verified at most once; a browser refresh of the return URL must not
// trigger a second verification because the reference has been stripped
// from the URL HandleReturn gives back.
type PaymentFlow struct {
	api paymentAPI

	mu        sync.Mutex
	state     PaymentState
	reference string
	verified  map[string]*api.PaymentOutcome
}

func NewPaymentFlow(a paymentAPI) *PaymentFlow {
	return &PaymentFlow{api: a, state: StateInactive, verified: make(map[string]*api.PaymentOutcome)}
}

// State returns the current flow state.
func (f *PaymentFlow) State() PaymentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Start opens a checkout for the plan and moves the flow to PendingPayment.
func (f *PaymentFlow) Start(ctx context.Context, planID string, months int) (*models.Checkout, error) {
	checkout, err := f.api.InitiatePayment(ctx, planID, months)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.state = StatePendingPayment
	f.reference = checkout.Reference
	f.mu.Unlock()
	return checkout, nil
}

// HandleReturn settles the provider's return URL. It extracts the payment
// reference (reference or trxref query parameter), verifies it exactly once
// and returns the URL with both parameters stripped. A repeated call with
// the same reference answers from the recorded outcome without another
// verification. Verification errors leave the flow Inactive.
func (f *PaymentFlow) HandleReturn(ctx context.Context, rawURL string) (string, *api.PaymentOutcome, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, err
	}

	q := u.Query()
	reference := q.Get("reference")
	if reference == "" {
		reference = q.Get("trxref")
	}
	q.Del("reference")
	q.Del("trxref")
	u.RawQuery = q.Encode()
	cleanURL := u.String()

	if reference == "" {
		return cleanURL, nil, ErrReferenceMissing
	}

	f.mu.Lock()
	if outcome, ok := f.verified[reference]; ok {
		f.mu.Unlock()
		return cleanURL, outcome, nil
	}
	f.state = StateVerifying
	f.mu.Unlock()

	outcome, err := f.api.VerifyPayment(ctx, reference)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateInactive
		return cleanURL, nil, err
	}

	f.verified[reference] = outcome
	if outcome.Status == "completed" {
		f.state = StateActive
	} else {
		f.state = StateInactive
	}
	return cleanURL, outcome, nil
}
