package transfers

import (
	"context"
	"time"

	"github.com/guardget/guardget/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error)
	GetByID(ctx context.Context, id string) (*models.Transfer, error)
	GetPendingByDevice(ctx context.Context, deviceID string) (*models.Transfer, error)
	// MarkAccepted flips a pending transfer to accepted; it is a no-op error
	// when the transfer is no longer pending.
	MarkAccepted(ctx context.Context, id, acceptedBy string, acceptedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.TransferStatus) error
}
