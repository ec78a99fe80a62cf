package devices

import (
	"context"

	"github.com/guardget/guardget/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, device *models.Device) (*models.Device, error)
	GetByID(ctx context.Context, id string) (*models.Device, error)
	// FindByIdentifier is an exact match on IMEI1, IMEI2 or serial number.
	FindByIdentifier(ctx context.Context, identifier string) (*models.Device, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Device, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	UpdateStatus(ctx context.Context, device *models.Device) error
	UpdateOwner(ctx context.Context, deviceID, newOwnerID string) error
	List(ctx context.Context) ([]*models.Device, error)
}
