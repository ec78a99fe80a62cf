package receipts

import (
	"context"

	"github.com/guardget/guardget/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, receipt *models.Receipt) (*models.Receipt, error)
	GetByID(ctx context.Context, id string) (*models.Receipt, error)
	GetByReference(ctx context.Context, reference string) (*models.Receipt, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Receipt, error)
	List(ctx context.Context) ([]*models.Receipt, error)
	UpdateStatus(ctx context.Context, id string, status models.ReceiptStatus) error
	SetDocumentKey(ctx context.Context, id, key string) error
}
