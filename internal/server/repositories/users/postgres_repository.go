package users

import (
	"context"
	"database/sql"
	"encoding/json"
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

const userColumns = `id, first_name, last_name, username, email, phone, role,
	password_hash, email_verified, keyholders, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	var keyholders []byte
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.UserName,
		&user.Email, &user.Phone, &user.Role, &user.PasswordHash,
		&user.EmailVerified, &keyholders, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(keyholders) > 0 {
		if err := json.Unmarshal(keyholders, &user.Keyholders); err != nil {
			return nil, fmt.Errorf("keyholders decode error: %w", err)
		}
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (first_name, last_name, username, email, phone, role, password_hash, keyholders)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at
		 `

	keyholders, err := json.Marshal(stringsOrEmpty(user.Keyholders))
	if err != nil {
		return nil, fmt.Errorf("keyholders encode error: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, user.UserName, user.Email, user.Phone,
		user.Role, user.PasswordHash, keyholders).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, `username = $1`, userName)
}

func (r *PostgresRepository) GetByContact(ctx context.Context, email, phone string) (*models.User, error) {
	return r.getOne(ctx, `(email = $1 AND $1 <> '') OR (phone = $2 AND $2 <> '')`, email, phone)
}

func (r *PostgresRepository) SetEmailVerified(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE users SET email_verified = true, updated_at = now() WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *PostgresRepository) UpdateKeyholders(ctx context.Context, id string, keyholders []string) error {
	encoded, err := json.Marshal(stringsOrEmpty(keyholders))
	if err != nil {
		return fmt.Errorf("keyholders encode error: %w", err)
	}
	return r.exec(ctx,
		`UPDATE users SET keyholders = $2, updated_at = now() WHERE id = $1`, id, encoded)
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

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	return r.selectMany(ctx, query)
}

func (r *PostgresRepository) Search(ctx context.Context, q string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE first_name ILIKE '%' || $1 || '%'
		    OR last_name ILIKE '%' || $1 || '%'
		    OR username ILIKE '%' || $1 || '%'
		    OR email ILIKE '%' || $1 || '%'
		    OR phone ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC`
	return r.selectMany(ctx, query, q)
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
