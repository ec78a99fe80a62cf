package refreshtokens

import (
	"context"
	"time"

	"github.com/guardget/guardget/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, revokedAt time.Time) error
}
