// Package cache keeps a local SQLite copy of the user's device list so the
// CLI can still show it when the backend is unreachable. The backend stays
// authoritative: every successful fetch replaces the cached rows wholesale.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/guardget/guardget/internal/client/migrations"
	"github.com/guardget/guardget/internal/client/models"
	"github.com/guardget/guardget/internal/dbx"
)

const metaFetchedAt = "devices_fetched_at"

// ErrEmpty is returned when the cache holds no snapshot yet.
var ErrEmpty = errors.New("cache is empty")

// RunMigrations applies the embedded cache schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the cache database and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// DeviceCache stores device snapshots in SQLite.
type DeviceCache struct {
	db *sql.DB
}

func NewDeviceCache(db *sql.DB) *DeviceCache {
	return &DeviceCache{db: db}
}

// Replace swaps the cached snapshot for the given one. The old rows are
// dropped in the same transaction so a failed refresh never leaves a mix.
func (c *DeviceCache) Replace(ctx context.Context, devices []models.Device, fetchedAt time.Time) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM devices`); err != nil {
			return fmt.Errorf("failed to clear devices: %w", err)
		}

		query := `INSERT INTO devices (id, name, type, imei1, imei2, serial_number, status, registered_at, updated_at)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, d := range devices {
			_, err := tx.ExecContext(ctx, query,
				d.ID, d.Name, d.Type, d.IMEI1, d.IMEI2, d.SerialNumber, d.Status, d.RegisteredAt, d.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert device: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO cache_meta (key, value) values (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			metaFetchedAt, fetchedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to store fetch time: %w", err)
		}
		return nil
	})
}

// Devices returns the cached snapshot and when it was fetched. ErrEmpty
// means no snapshot has been stored yet.
func (c *DeviceCache) Devices(ctx context.Context) ([]models.Device, time.Time, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `select value from cache_meta where key=?`, metaFetchedAt).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrEmpty
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read fetch time: %w", err)
	}
	fetchedAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse fetch time: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`select id, name, type, imei1, imei2, serial_number, status, registered_at, updated_at from devices order by registered_at`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to select devices: %w", err)
	}
	defer rows.Close()

	var result []models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.IMEI1, &d.IMEI2, &d.SerialNumber, &d.Status, &d.RegisteredAt, &d.UpdatedAt); err != nil {
			return nil, time.Time{}, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	return result, fetchedAt, nil
}
