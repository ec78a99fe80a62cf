package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/guardget/guardget/internal/client/models"
)

// CurrentSubscription holds the user's active subscription and its plan.
type CurrentSubscription struct {
	Subscription models.Subscription `json:"subscription"`
	Plan         models.Plan         `json:"plan"`
}

// PaymentOutcome is the verify-payment answer. Subscription is set only when
// the payment went through.
type PaymentOutcome struct {
	Reference    string               `json:"reference"`
	Status       string               `json:"status"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// Plans lists the available plans. Works without authentication.
func (c *Client) Plans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	if err := c.do(ctx, http.MethodGet, "/subscriptions/plans", nil, nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Subscription returns the current subscription, or a not-found error when
// the user is on the free tier.
func (c *Client) Subscription(ctx context.Context) (*CurrentSubscription, error) {
	var current CurrentSubscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/user", nil, nil, &current); err != nil {
		return nil, err
	}
	return &current, nil
}

// InitiatePayment opens a checkout for the given plan and duration.
func (c *Client) InitiatePayment(ctx context.Context, planID string, months int) (*models.Checkout, error) {
	body := map[string]any{"planId": planID, "months": months}
	var checkout models.Checkout
	if err := c.do(ctx, http.MethodPost, "/subscriptions/initiate-payment", nil, body, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// VerifyPayment settles a checkout by reference. Safe to repeat: the backend
// answers completed references from its own records.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*PaymentOutcome, error) {
	query := url.Values{"reference": []string{reference}}
	var outcome PaymentOutcome
	if err := c.do(ctx, http.MethodGet, "/subscriptions/verify-payment", query, nil, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// CancelAutoRenew turns off renewal; the paid period keeps running.
func (c *Client) CancelAutoRenew(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/subscriptions/cancel", nil, nil, nil)
}

// Receipts lists the user's payment receipts.
func (c *Client) Receipts(ctx context.Context) ([]models.Receipt, error) {
	var receipts []models.Receipt
	if err := c.do(ctx, http.MethodGet, "/users/receipts/", nil, nil, &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// GetReceipt returns one receipt by id.
func (c *Client) GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error) {
	var receipt models.Receipt
	if err := c.do(ctx, http.MethodGet, "/users/receipts/"+receiptID, nil, nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// DownloadReceipt streams the receipt PDF. The caller closes the reader.
func (c *Client) DownloadReceipt(ctx context.Context, receiptID string) (io.ReadCloser, error) {
	return c.stream(ctx, http.MethodGet, "/users/receipts/"+receiptID+"/download")
}
