package transfers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/dbx"
	"github.com/guardget/guardget/internal/server/models"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const transferColumns = `id, device_id, from_user_id, recipient_email, recipient_phone,
	status, created_at, expires_at, accepted_by, accepted_at`

func scanTransfer(row interface{ Scan(...any) error }) (*models.Transfer, error) {
	t := &models.Transfer{}
	var acceptedBy sql.NullString
	var acceptedAt sql.NullTime

	err := row.Scan(&t.ID, &t.DeviceID, &t.FromUserID, &t.RecipientEmail,
		&t.RecipientPhone, &t.Status, &t.CreatedAt, &t.ExpiresAt,
		&acceptedBy, &acceptedAt)
	if err != nil {
		return nil, err
	}

	if acceptedBy.Valid {
		t.AcceptedBy = acceptedBy.String
	}
	if acceptedAt.Valid {
		t.AcceptedAt = &acceptedAt.Time
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	query :=
		`INSERT INTO transfers (device_id, from_user_id, recipient_email, recipient_phone, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		transfer.DeviceID, transfer.FromUserID, transfer.RecipientEmail,
		transfer.RecipientPhone, transfer.Status, transfer.ExpiresAt).
		Scan(&transfer.ID, &transfer.CreatedAt)

	if err != nil {
		// partial unique index: one pending transfer per device
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorTransferPending
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transfer, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, args ...any) (*models.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE ` + where

	transfer, err := scanTransfer(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return transfer, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) GetPendingByDevice(ctx context.Context, deviceID string) (*models.Transfer, error) {
	return r.getOne(ctx, `device_id = $1 AND status = 'pending'`, deviceID)
}

func (r *PostgresRepository) MarkAccepted(ctx context.Context, id, acceptedBy string, acceptedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transfers SET status = 'accepted', accepted_by = $2, accepted_at = $3
		 WHERE id = $1 AND status = 'pending'`,
		id, acceptedBy, acceptedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.TransferStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transfers SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
