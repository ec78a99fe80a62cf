package plans

import (
	"context"

	"github.com/guardget/guardget/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Plan, error)
	GetByID(ctx context.Context, id string) (*models.Plan, error)
}
