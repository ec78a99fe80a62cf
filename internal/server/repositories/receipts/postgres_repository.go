package receipts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/dbx"
	"github.com/guardget/guardget/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const receiptColumns = `id, user_id, plan_id, months, amount, status, reference, document_key, created_at`

func scanReceipt(row interface{ Scan(...any) error }) (*models.Receipt, error) {
	rc := &models.Receipt{}
	err := row.Scan(&rc.ID, &rc.UserID, &rc.PlanID, &rc.Months, &rc.Amount, &rc.Status, &rc.Reference,
		&rc.DocumentKey, &rc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (r *PostgresRepository) Create(ctx context.Context, receipt *models.Receipt) (*models.Receipt, error) {
	query :=
		`INSERT INTO receipts (user_id, plan_id, months, amount, status, reference, document_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		receipt.UserID, receipt.PlanID, receipt.Months, receipt.Amount, receipt.Status, receipt.Reference, receipt.DocumentKey).
		Scan(&receipt.ID, &receipt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return receipt, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, args ...any) (*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE ` + where

	receipt, err := scanReceipt(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return receipt, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Receipt, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) GetByReference(ctx context.Context, reference string) (*models.Receipt, error) {
	return r.getOne(ctx, `reference = $1`, reference)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.selectMany(ctx, query, userID)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts ORDER BY created_at DESC`
	return r.selectMany(ctx, query)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.ReceiptStatus) error {
	return r.exec(ctx, `UPDATE receipts SET status = $2 WHERE id = $1`, id, status)
}

func (r *PostgresRepository) SetDocumentKey(ctx context.Context, id, key string) error {
	return r.exec(ctx, `UPDATE receipts SET document_key = $2 WHERE id = $1`, id, key)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
