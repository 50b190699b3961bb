package database

import (
	"context"
	"errors"

	"holabox/internal/models"
	"holabox/internal/quota"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrUserAlreadyExists = errors.New("email or username already registered")
var ErrEmailInUse = errors.New("email already in use")

const userColumns = `
	id, email, username, password_hash, full_name, is_active, is_admin,
	plan_type, storage_used, total_uploads, last_login, created_at, updated_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.IsActive,
		&user.IsAdmin,
		&user.PlanType,
		&user.StorageUsed,
		&user.TotalUploads,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

type CreateUserParams struct {
	Email        string
	Username     string
	PasswordHash string
	FullName     *string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (email, username, password_hash, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	row := q.db.QueryRow(ctx, query, arg.Email, arg.Username, arg.PasswordHash, arg.FullName)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return user, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.db.QueryRow(ctx, query, email))
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(q.db.QueryRow(ctx, query, username))
}

func (q *Queries) UpdateLastLogin(ctx context.Context, userID int64) error {
	query := `UPDATE users SET last_login = NOW() WHERE id = $1`
	_, err := q.db.Exec(ctx, query, userID)
	return err
}

type UpdateUserProfileParams struct {
	UserID   int64
	FullName *string
	Email    *string
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (*models.User, error) {
	query := `
		UPDATE users
		SET full_name = COALESCE($1, full_name),
			email = COALESCE($2, email),
			updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns

	row := q.db.QueryRow(ctx, query, arg.FullName, arg.Email, arg.UserID)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	return user, nil
}

func (q *Queries) UpdateUserPassword(ctx context.Context, userID int64, newPasswordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.db.Exec(ctx, query, newPasswordHash, userID)
	return err
}

// ReserveStorage atomically adds sizeBytes to the user's ledger, but only
// when the result still fits the plan limit. The limit is resolved inside
// the statement so two concurrent uploads cannot jointly overshoot the
// quota. Returns false when the reservation would exceed the limit.
func (q *Queries) ReserveStorage(ctx context.Context, userID int64, sizeBytes int64) (bool, error) {
	query := `
		UPDATE users
		SET storage_used = storage_used + $1, updated_at = NOW()
		WHERE id = $2
		  AND storage_used + $1 <= CASE plan_type
			WHEN 'premium' THEN $3::bigint
			WHEN 'ultra' THEN $4::bigint
			ELSE $5::bigint
		  END
	`
	res, err := q.db.Exec(ctx, query, sizeBytes, userID,
		quota.PremiumLimitBytes, quota.UltraLimitBytes, quota.FreeLimitBytes)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

// ReleaseStorage subtracts sizeBytes from the ledger, clamping at zero so
// bookkeeping drift can never push it negative.
func (q *Queries) ReleaseStorage(ctx context.Context, userID int64, sizeBytes int64) error {
	query := `
		UPDATE users
		SET storage_used = GREATEST(0, storage_used - $1), updated_at = NOW()
		WHERE id = $2
	`
	_, err := q.db.Exec(ctx, query, sizeBytes, userID)
	return err
}

// SetStorageUsed overwrites the ledger with a recomputed value. Only the
// explicit recompute endpoint calls this.
func (q *Queries) SetStorageUsed(ctx context.Context, userID int64, sizeBytes int64) error {
	query := `UPDATE users SET storage_used = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.db.Exec(ctx, query, sizeBytes, userID)
	return err
}

func (q *Queries) IncrementTotalUploads(ctx context.Context, userID int64) error {
	query := `UPDATE users SET total_uploads = total_uploads + 1 WHERE id = $1`
	_, err := q.db.Exec(ctx, query, userID)
	return err
}
