package services

import (
	"context"
	"strings"

	"github.com/guardget/guardget/internal/client/api"
	"github.com/guardget/guardget/internal/client/models"
)

type transferAPI interface {
	InitiateTransfer(ctx context.Context, req api.InitiateTransferRequest) (*models.Transfer, error)
	AcceptTransfer(ctx context.Context, transferID string) (*models.Transfer, error)
	GetTransfer(ctx context.Context, transferID string) (*models.Transfer, error)
	CancelTransfer(ctx context.Context, transferID string) error
}

// TransferService runs device ownership transfers.
type TransferService struct {
	api transferAPI
}

func NewTransferService(a transferAPI) *TransferService {
	return &TransferService{api: a}
}

// Initiate starts a transfer. The recipient must be identified by email or
// phone before any network call.
func (s *TransferService) Initiate(ctx context.Context, deviceID, recipientEmail, recipientPhone string) (*models.Transfer, error) {
	recipientEmail = strings.TrimSpace(recipientEmail)
	recipientPhone = strings.TrimSpace(recipientPhone)
	if recipientEmail == "" && recipientPhone == "" {
		return nil, ErrRecipientRequired
	}

	return s.api.InitiateTransfer(ctx, api.InitiateTransferRequest{
		DeviceID:       deviceID,
		RecipientEmail: recipientEmail,
		RecipientPhone: recipientPhone,
	})
}

func (s *TransferService) Accept(ctx context.Context, transferID string) (*models.Transfer, error) {
	return s.api.AcceptTransfer(ctx, transferID)
}

func (s *TransferService) Get(ctx context.Context, transferID string) (*models.Transfer, error) {
	return s.api.GetTransfer(ctx, transferID)
}

func (s *TransferService) Cancel(ctx context.Context, transferID string) error {
	return s.api.CancelTransfer(ctx, transferID)
}
