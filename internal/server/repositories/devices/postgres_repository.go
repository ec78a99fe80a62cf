package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

const deviceColumns = `id, name, type, imei1, imei2, serial_number, status, owner_id,
	incident_location, incident_country, incident_state, incident_date,
	incident_contact_phone, incident_photo_key, incident_description,
	registered_at, updated_at`

func scanDevice(row interface{ Scan(...any) error }) (*models.Device, error) {
	d := &models.Device{}
	inc := models.Incident{}
	var incidentDate sql.NullTime

	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.IMEI1, &d.IMEI2, &d.SerialNumber,
		&d.Status, &d.OwnerID,
		&inc.Location, &inc.Country, &inc.State, &incidentDate,
		&inc.ContactPhone, &inc.PhotoKey, &inc.Description,
		&d.RegisteredAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if incidentDate.Valid {
		inc.Date = incidentDate.Time
	}
	// Incident metadata only exists while the device is reported.
	if d.Status == models.DeviceStatusStolen || d.Status == models.DeviceStatusMissing {
		d.Incident = &inc
	}
	return d, nil
}

func (r *PostgresRepository) Create(ctx context.Context, device *models.Device) (*models.Device, error) {
	query :=
		`INSERT INTO devices (name, type, imei1, imei2, serial_number, status, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, registered_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		device.Name, device.Type, device.IMEI1, device.IMEI2,
		device.SerialNumber, device.Status, device.OwnerID).
		Scan(&device.ID, &device.RegisteredAt, &device.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return device, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, args ...any) (*models.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE ` + where

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return device, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Device, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Device, error) {
	return r.getOne(ctx, `imei1 = $1 OR imei2 = $1 OR serial_number = $1`, identifier)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE owner_id = $1 ORDER BY registered_at DESC`
	return r.selectMany(ctx, query, ownerID)
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM devices WHERE owner_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// UpdateStatus persists the device status together with its incident
// metadata. Callers clear device.Incident before calling when the device
// returns to a non-reported state.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, device *models.Device) error {
	inc := device.Incident
	if inc == nil {
		inc = &models.Incident{}
	}

	var incidentDate sql.NullTime
	if !inc.Date.IsZero() {
		incidentDate = sql.NullTime{Time: inc.Date, Valid: true}
	}

	query :=
		`UPDATE devices SET status = $2,
			incident_location = $3, incident_country = $4, incident_state = $5,
			incident_date = $6, incident_contact_phone = $7,
			incident_photo_key = $8, incident_description = $9,
			updated_at = now()
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, device.ID, device.Status,
		inc.Location, inc.Country, inc.State, incidentDate,
		inc.ContactPhone, inc.PhotoKey, inc.Description)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateOwner(ctx context.Context, deviceID, newOwnerID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET owner_id = $2, updated_at = now() WHERE id = $1`,
		deviceID, newOwnerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY registered_at DESC`
	return r.selectMany(ctx, query)
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
