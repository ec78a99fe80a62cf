package users

import (
	"context"

	"github.com/guardget/guardget/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	// GetByContact matches a user on email or phone; used when resolving
	// transfer recipients.
	GetByContact(ctx context.Context, email, phone string) (*models.User, error)
	SetEmailVerified(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateKeyholders(ctx context.Context, id string, keyholders []string) error
	List(ctx context.Context) ([]*models.User, error)
	Search(ctx context.Context, q string) ([]*models.User, error)
}
