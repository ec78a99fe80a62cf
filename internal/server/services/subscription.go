package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/dbx"
	sc "github.com/guardget/guardget/internal/server/config"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/payments"
	"github.com/guardget/guardget/internal/server/repositories/repomanager"
)

const maxSubscriptionMonths = 24

// SubscriptionService sells plans through a hosted checkout. Payment
// verification is idempotent per reference: a completed receipt is answered
// from the database without touching the provider again.
type SubscriptionService struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	config   *sc.Config
	provider payments.Provider
	now      func() time.Time
}

func NewSubscriptionService(db *sql.DB, rm repomanager.RepositoryManager, config *sc.Config, provider payments.Provider) *SubscriptionService {
	return &SubscriptionService{db: db, rm: rm, config: config, provider: provider, now: time.Now}
}

// Checkout is handed back from InitiatePayment; the client redirects the
// customer to URL and later verifies Reference.
type Checkout struct {
	Reference string
	URL       string
	Amount    int64
}

// PaymentOutcome reports the settled state of a reference.
type PaymentOutcome struct {
	Reference    string
	Status       models.ReceiptStatus
	ReceiptID    string
	Subscription *models.Subscription
}

func (s *SubscriptionService) Plans(ctx context.Context) ([]*models.Plan, error) {
	return s.rm.Plans(s.db).List(ctx)
}

// Current returns the user's active subscription together with its plan.
func (s *SubscriptionService) Current(ctx context.Context, userID string) (*models.Subscription, *models.Plan, error) {
	sub, err := s.rm.Subscriptions(s.db).GetActiveByUser(ctx, userID, s.now())
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.rm.Plans(s.db).GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return sub, plan, nil
}

// InitiatePayment creates a pending receipt and registers the charge with
// the checkout provider. Nothing is activated until the reference verifies.
func (s *SubscriptionService) InitiatePayment(ctx context.Context, userID, planID string, months int) (*Checkout, error) {
	if months < 1 || months > maxSubscriptionMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", common.ErrorValidation, maxSubscriptionMonths)
	}

	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.rm.Plans(s.db).GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown plan", common.ErrorValidation)
		}
		return nil, err
	}

	reference := uuid.NewString()
	amount := plan.Price * int64(months)

	receipt := &models.Receipt{
		UserID:    userID,
		PlanID:    plan.ID,
		Months:    months,
		Amount:    amount,
		Status:    models.ReceiptStatusPending,
		Reference: reference,
	}
	if _, err := s.rm.Receipts(s.db).Create(ctx, receipt); err != nil {
		return nil, err
	}

	url, err := s.provider.InitiateCheckout(ctx, payments.CheckoutRequest{
		Reference:   reference,
		Amount:      amount,
		Email:       user.Email,
		CallbackURL: s.config.CheckoutCallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("initiating checkout: %w", err)
	}

	return &Checkout{Reference: reference, URL: url, Amount: amount}, nil
}

// VerifyPayment settles a reference. Verifying an already completed receipt
// returns the recorded outcome without consulting the provider, so repeated
// calls for the same reference never double-charge or double-extend.
func (s *SubscriptionService) VerifyPayment(ctx context.Context, userID, reference string) (*PaymentOutcome, error) {
	receipt, err := s.rm.Receipts(s.db).GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if receipt.UserID != userID {
		return nil, common.ErrorForbidden
	}

	outcome := &PaymentOutcome{Reference: reference, ReceiptID: receipt.ID, Status: receipt.Status}
	if receipt.Status == models.ReceiptStatusCompleted {
		if sub, err := s.rm.Subscriptions(s.db).GetActiveByUser(ctx, userID, s.now()); err == nil {
			outcome.Subscription = sub
		}
		return outcome, nil
	}

	result, err := s.provider.VerifyReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("verifying payment: %w", err)
	}
	if !result.Paid {
		if err := s.rm.Receipts(s.db).UpdateStatus(ctx, receipt.ID, models.ReceiptStatusFailed); err != nil {
			return nil, err
		}
		outcome.Status = models.ReceiptStatusFailed
		return outcome, nil
	}

	// A renewal extends from the current period's end, not from now.
	start := s.now()
	if current, err := s.rm.Subscriptions(s.db).GetActiveByUser(ctx, userID, start); err == nil {
		start = current.EndDate
	}

	sub := &models.Subscription{
		UserID:        userID,
		PlanID:        receipt.PlanID,
		StartDate:     start,
		EndDate:       start.AddDate(0, receipt.Months, 0),
		AutoRenew:     true,
		PaymentMethod: result.Channel,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Receipts(tx).UpdateStatus(ctx, receipt.ID, models.ReceiptStatusCompleted); err != nil {
			return err
		}
		created, err := s.rm.Subscriptions(tx).Create(ctx, sub)
		if err != nil {
			return err
		}
		sub = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome.Status = models.ReceiptStatusCompleted
	outcome.Subscription = sub
	return outcome, nil
}

// CancelAutoRenew stops future renewals; the paid period keeps running until
// its end date.
func (s *SubscriptionService) CancelAutoRenew(ctx context.Context, userID string) error {
	return s.rm.Subscriptions(s.db).ClearAutoRenew(ctx, userID)
}
