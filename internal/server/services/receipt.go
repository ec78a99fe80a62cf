package services

import (
	"context"
	"database/sql"
	"io"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/repositories/repomanager"
)

// ReceiptService gives users access to their payment history and the stored
// receipt documents.
type ReceiptService struct {
	db      *sql.DB
	rm      repomanager.RepositoryManager
	storage Storage
}

func NewReceiptService(db *sql.DB, rm repomanager.RepositoryManager, storage Storage) *ReceiptService {
	return &ReceiptService{db: db, rm: rm, storage: storage}
}

func (s *ReceiptService) ListByUser(ctx context.Context, userID string) ([]*models.Receipt, error) {
	return s.rm.Receipts(s.db).ListByUser(ctx, userID)
}

// Get returns a receipt to its owner or to an admin.
func (s *ReceiptService) Get(ctx context.Context, userID string, isAdmin bool, receiptID string) (*models.Receipt, error) {
	receipt, err := s.rm.Receipts(s.db).GetByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.UserID != userID && !isAdmin {
		return nil, common.ErrorForbidden
	}
	return receipt, nil
}

// Download streams the stored receipt document. A receipt with no attached
// document reads as not found.
func (s *ReceiptService) Download(ctx context.Context, userID string, isAdmin bool, receiptID string) (io.ReadCloser, error) {
	receipt, err := s.Get(ctx, userID, isAdmin, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.DocumentKey == "" {
		return nil, common.ErrorNotFound
	}
	return s.storage.Fetch(ctx, receipt.DocumentKey)
}

// AttachDocument links a stored document to a receipt. Documents are
// produced out of band and uploaded by an operator.
func (s *ReceiptService) AttachDocument(ctx context.Context, receiptID, key string) error {
	return s.rm.Receipts(s.db).SetDocumentKey(ctx, receiptID, key)
}
