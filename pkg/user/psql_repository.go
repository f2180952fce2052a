package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nexrate/nexrate-verify/pkg/utils"
)

// PostgresUserRepository implements UserRepository using PostgreSQL. The
// trusted-device list is stored as a single JSONB column and always written
// whole, preserving the document-store read-modify-write semantics.
type PostgresUserRepository struct {
	db DBTX
}

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

const userColumns = `id, email, verification_code, verification_code_expiry, verification_attempts, trusted_devices, created_at, updated_at`

// CreateUser inserts a new user row
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Email = NormalizeEmail(u.Email)

	devices, err := marshalDevices(u.TrustedDevices)
	if err != nil {
		return User{}, err
	}

	var code sql.NullString
	if u.CodeValid {
		code = utils.ToNullString(u.VerificationCode)
	}
	var expiry sql.NullTime
	if u.CodeExpiryValid {
		expiry = utils.ToNullTime(u.VerificationCodeExpiry)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.Exec(ctx, query,
		u.ID, u.Email, code, expiry, u.VerificationAttempts, devices, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// FindUserByEmail retrieves a user by email
func (r *PostgresUserRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	row := r.db.QueryRow(ctx, query, NormalizeEmail(email))

	var (
		u       User
		code    sql.NullString
		expiry  sql.NullTime
		devices []byte
	)
	err := row.Scan(&u.ID, &u.Email, &code, &expiry, &u.VerificationAttempts, &devices, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to find user: %w", err)
	}

	u.VerificationCode = code.String
	u.CodeValid = code.Valid
	u.VerificationCodeExpiry = expiry.Time
	u.CodeExpiryValid = expiry.Valid

	if len(devices) > 0 {
		if err := json.Unmarshal(devices, &u.TrustedDevices); err != nil {
			return User{}, fmt.Errorf("failed to decode trusted devices: %w", err)
		}
	}

	return u, nil
}

// SetVerificationCode persists a new code and expiry and resets attempts.
// Unconditional overwrite: concurrent issues are last-write-wins.
func (r *PostgresUserRepository) SetVerificationCode(ctx context.Context, params SetVerificationCodeParams) error {
	query := `
		UPDATE users
		SET verification_code = $2,
		    verification_code_expiry = $3,
		    verification_attempts = 0,
		    updated_at = $4
		WHERE email = $1`
	tag, err := r.db.Exec(ctx, query,
		NormalizeEmail(params.Email), params.Code, params.ExpiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateVerificationAttempts sets the failed-attempt counter
func (r *PostgresUserRepository) UpdateVerificationAttempts(ctx context.Context, email string, attempts int) error {
	query := `
		UPDATE users
		SET verification_attempts = $2,
		    updated_at = $3
		WHERE email = $1`
	tag, err := r.db.Exec(ctx, query, NormalizeEmail(email), attempts, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update verification attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearVerificationCode nulls the code and expiry and resets attempts
func (r *PostgresUserRepository) ClearVerificationCode(ctx context.Context, email string) error {
	query := `
		UPDATE users
		SET verification_code = NULL,
		    verification_code_expiry = NULL,
		    verification_attempts = 0,
		    updated_at = $2
		WHERE email = $1`
	tag, err := r.db.Exec(ctx, query, NormalizeEmail(email), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to clear verification code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ReplaceTrustedDevices overwrites the trusted_devices JSONB column
func (r *PostgresUserRepository) ReplaceTrustedDevices(ctx context.Context, email string, devices []TrustedDevice) error {
	payload, err := marshalDevices(devices)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET trusted_devices = $2,
		    updated_at = $3
		WHERE email = $1`
	tag, err := r.db.Exec(ctx, query, NormalizeEmail(email), payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to replace trusted devices: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func marshalDevices(devices []TrustedDevice) ([]byte, error) {
	if devices == nil {
		devices = []TrustedDevice{}
	}
	payload, err := json.Marshal(devices)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trusted devices: %w", err)
	}
	return payload, nil
}
