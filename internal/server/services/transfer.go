package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/dbx"
	sc "github.com/guardget/guardget/internal/server/config"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/repositories/repomanager"
)

// TransferService moves device ownership between accounts. A transfer stays
// pending until the named recipient accepts it; the initiator remains owner
// of record the whole time.
type TransferService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	config *sc.Config
	now    func() time.Time
}

func NewTransferService(db *sql.DB, rm repomanager.RepositoryManager, config *sc.Config) *TransferService {
	return &TransferService{db: db, rm: rm, config: config, now: time.Now}
}

// Initiate opens a pending transfer of an owned, unreported device to a
// recipient identified by email or phone. A device carries at most one
// pending transfer at a time.
func (s *TransferService) Initiate(ctx context.Context, userID, deviceID, recipientEmail, recipientPhone string) (*models.Transfer, error) {
	recipientEmail = strings.TrimSpace(strings.ToLower(recipientEmail))
	recipientPhone = strings.TrimSpace(recipientPhone)
	if recipientEmail == "" && recipientPhone == "" {
		return nil, fmt.Errorf("%w: a recipient email or phone is required", common.ErrorValidation)
	}

	device, err := s.rm.Devices(s.db).GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.OwnerID != userID {
		return nil, common.ErrorForbidden
	}
	if device.Reported() {
		return nil, fmt.Errorf("%w: a reported device cannot be transferred", common.ErrorValidation)
	}

	transfer := &models.Transfer{
		DeviceID:       deviceID,
		FromUserID:     userID,
		RecipientEmail: recipientEmail,
		RecipientPhone: recipientPhone,
		Status:         models.TransferStatusPending,
		ExpiresAt:      s.now().Add(s.config.TransferValidityDuration),
	}
	return s.rm.Transfers(s.db).Create(ctx, transfer)
}

// Accept completes a pending transfer. Only the user whose email or phone
// matches the recipient may accept; acceptance and the ownership change
// happen in one transaction.
func (s *TransferService) Accept(ctx context.Context, userID, transferID string) (*models.Transfer, error) {
	transfer, err := s.rm.Transfers(s.db).GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if transfer.Status != models.TransferStatusPending {
		return nil, fmt.Errorf("%w: transfer is no longer pending", common.ErrorValidation)
	}

	now := s.now()
	if transfer.Expired(now) {
		if err := s.rm.Transfers(s.db).UpdateStatus(ctx, transfer.ID, models.TransferStatusExpired); err != nil {
			return nil, err
		}
		return nil, common.ErrorTransferExpired
	}

	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !recipientMatches(transfer, user) {
		return nil, common.ErrorForbidden
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Transfers(tx).MarkAccepted(ctx, transfer.ID, userID, now); err != nil {
			return err
		}
		return s.rm.Devices(tx).UpdateOwner(ctx, transfer.DeviceID, userID)
	})
	if err != nil {
		return nil, err
	}

	transfer.Status = models.TransferStatusAccepted
	transfer.AcceptedBy = userID
	transfer.AcceptedAt = &now
	return transfer, nil
}

func recipientMatches(transfer *models.Transfer, user *models.User) bool {
	if transfer.RecipientEmail != "" && strings.EqualFold(transfer.RecipientEmail, user.Email) {
		return true
	}
	if transfer.RecipientPhone != "" && transfer.RecipientPhone == user.Phone {
		return true
	}
	return false
}

// Cancel withdraws a pending transfer. Only the initiator may cancel.
func (s *TransferService) Cancel(ctx context.Context, userID, transferID string) error {
	transfer, err := s.rm.Transfers(s.db).GetByID(ctx, transferID)
	if err != nil {
		return err
	}
	if transfer.FromUserID != userID {
		return common.ErrorForbidden
	}
	if transfer.Status != models.TransferStatusPending {
		return fmt.Errorf("%w: transfer is no longer pending", common.ErrorValidation)
	}
	return s.rm.Transfers(s.db).UpdateStatus(ctx, transfer.ID, models.TransferStatusCancelled)
}

// Get returns a transfer to either party: the initiator, or a user matching
// the recipient contact.
func (s *TransferService) Get(ctx context.Context, userID string, isAdmin bool, transferID string) (*models.Transfer, error) {
	transfer, err := s.rm.Transfers(s.db).GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if transfer.FromUserID == userID || isAdmin {
		return transfer, nil
	}
	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !recipientMatches(transfer, user) {
		return nil, common.ErrorForbidden
	}
	return transfer, nil
}

// PendingForDevice returns the open transfer on a device, if any.
func (s *TransferService) PendingForDevice(ctx context.Context, userID, deviceID string) (*models.Transfer, error) {
	device, err := s.rm.Devices(s.db).GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.OwnerID != userID {
		return nil, common.ErrorForbidden
	}
	transfer, err := s.rm.Transfers(s.db).GetPendingByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if transfer.Expired(s.now()) {
		if err := s.rm.Transfers(s.db).UpdateStatus(ctx, transfer.ID, models.TransferStatusExpired); err != nil {
			return nil, err
		}
		return nil, common.ErrorNotFound
	}
	return transfer, nil
}
