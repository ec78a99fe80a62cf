package subscriptions

import (
	"context"
	"time"

	"github.com/guardget/guardget/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	// GetActiveByUser returns the subscription covering instant now, if any.
	GetActiveByUser(ctx context.Context, userID string, now time.Time) (*models.Subscription, error)
	ClearAutoRenew(ctx context.Context, userID string) error
	List(ctx context.Context) ([]*models.Subscription, error)
}
