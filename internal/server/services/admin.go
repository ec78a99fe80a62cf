package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/repositories/repomanager"
)

// AdminService is the read-mostly surface behind the admin endpoints.
// Authorization (role admin) is enforced at the HTTP layer.
type AdminService struct {
	db  *sql.DB
	rm  repomanager.RepositoryManager
	now func() time.Time
}

func NewAdminService(db *sql.DB, rm repomanager.RepositoryManager) *AdminService {
	return &AdminService{db: db, rm: rm, now: time.Now}
}

// ListUsers returns all users, or those matching q when it is non-blank.
func (s *AdminService) ListUsers(ctx context.Context, q string) ([]*models.User, error) {
	q = strings.TrimSpace(q)
	if q != "" {
		return s.rm.Users(s.db).Search(ctx, q)
	}
	return s.rm.Users(s.db).List(ctx)
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.rm.Users(s.db).GetByID(ctx, id)
}

// UserDetails is the single-screen view of one account: profile, the
// subscription covering now with its plan, and usage counts.
type UserDetails struct {
	User         *models.User
	Subscription *models.Subscription
	Plan         *models.Plan
	DeviceCount  int
	ReceiptCount int
}

func (s *AdminService) UserDetails(ctx context.Context, id string) (*UserDetails, error) {
	user, err := s.rm.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details := &UserDetails{User: user}

	sub, err := s.rm.Subscriptions(s.db).GetActiveByUser(ctx, id, s.now())
	switch {
	case err == nil:
		details.Subscription = sub
		plan, err := s.rm.Plans(s.db).GetByID(ctx, sub.PlanID)
		if err != nil {
			return nil, err
		}
		details.Plan = plan
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	details.DeviceCount, err = s.rm.Devices(s.db).CountByOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	receipts, err := s.rm.Receipts(s.db).ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	details.ReceiptCount = len(receipts)

	return details, nil
}

func (s *AdminService) UserDevices(ctx context.Context, userID string) ([]*models.Device, error) {
	return s.rm.Devices(s.db).ListByOwner(ctx, userID)
}

func (s *AdminService) UserReceipts(ctx context.Context, userID string) ([]*models.Receipt, error) {
	return s.rm.Receipts(s.db).ListByUser(ctx, userID)
}

func (s *AdminService) ListDevices(ctx context.Context) ([]*models.Device, error) {
	return s.rm.Devices(s.db).List(ctx)
}

func (s *AdminService) ListReceipts(ctx context.Context) ([]*models.Receipt, error) {
	return s.rm.Receipts(s.db).List(ctx)
}

func (s *AdminService) ListSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	return s.rm.Subscriptions(s.db).List(ctx)
}
