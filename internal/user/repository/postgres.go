package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"unipos-auth/internal/user/domain"
)

const userColumns = `id, username, email, password, national_id, first_name, last_name,
	phone_number, is_active, is_super_root, created_at, updated_at, deleted_at`

var fieldColumns = map[string]string{
	FieldUsername:   "username",
	FieldEmail:      "email",
	FieldNationalID: "national_id",
}

var constraintFields = map[string]string{
	"users_username_key":    FieldUsername,
	"users_email_key":       FieldEmail,
	"users_national_id_key": FieldNationalID,
}

type PostgresRepository struct {
	db sqlx.ExtContext
}

// NewPostgresRepository returns a user repository backed by db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByIdentifier returns the user whose username or email equals identifier, or nil if not found.
func (r *PostgresRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1 LIMIT 1`, identifier)
}

// GetByEmailAndNationalID returns the user registered with both values, or nil if not found.
func (r *PostgresRepository) GetByEmailAndNationalID(ctx context.Context, email, nationalID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND national_id = $2`, email, nationalID)
}

// Exists reports whether a user holds value in field. field must be one of the Field constants.
func (r *PostgresRepository) Exists(ctx context.Context, field, value string) (bool, error) {
	col, ok := fieldColumns[field]
	if !ok {
		return false, fmt.Errorf("user repository: unknown field %q", field)
	}
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE `+col+` = $1)`, value)
	return exists, err
}

// Create persists u. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO users (id, username, email, password, national_id, first_name, last_name,
			phone_number, is_active, is_super_root, created_at, updated_at)
		VALUES (:id, :username, :email, :password, :national_id, :first_name, :last_name,
			:phone_number, :is_active, :is_super_root, :created_at, :updated_at)`, u)
	return mapUniqueViolation(err)
}

// Update writes the profile columns of u. The password hash and activation state are not
// touched; see UpdatePassword and the session repository's CloseAccount. Returns ErrNotFound
// when no active row matched.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	res, err := sqlx.NamedExecContext(ctx, r.db, `
		UPDATE users SET
			email = :email,
			national_id = :national_id,
			first_name = :first_name,
			last_name = :last_name,
			phone_number = :phone_number,
			updated_at = :updated_at
		WHERE id = :id AND is_active`, u)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return requireRow(res)
}

// UpdatePassword swaps the hash only while it still equals oldHash, so two concurrent
// changes cannot both win. Returns false when the row was missing, inactive or already changed.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, oldHash, newHash string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password = $3, updated_at = $4
		WHERE id = $1 AND password = $2 AND is_active`, id, oldHash, newHash, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	if err := sqlx.GetContext(ctx, r.db, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if field, ok := constraintFields[pgErr.ConstraintName]; ok {
			return &DuplicateError{Field: field}
		}
	}
	return err
}
