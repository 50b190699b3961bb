package database

import (
	"context"
	"errors"
	"time"

	"holabox/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrShareNotFound = errors.New("share not found or user is not the owner")

const shareColumns = `
	id, share_token, file_id, user_id, password_hash, expires_at,
	view_count, download_count, is_active, created_at
`

func scanShare(row pgx.Row) (*models.Share, error) {
	var share models.Share
	err := row.Scan(
		&share.ID,
		&share.ShareToken,
		&share.FileID,
		&share.UserID,
		&share.PasswordHash,
		&share.ExpiresAt,
		&share.ViewCount,
		&share.DownloadCount,
		&share.IsActive,
		&share.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &share, nil
}

type CreateShareParams struct {
	ShareToken   string
	FileID       string
	UserID       int64
	PasswordHash *string
	ExpiresAt    *time.Time
}

func (q *Queries) CreateShare(ctx context.Context, arg CreateShareParams) (*models.Share, error) {
	query := `
		INSERT INTO shares (share_token, file_id, user_id, password_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + shareColumns

	row := q.db.QueryRow(ctx, query,
		arg.ShareToken,
		arg.FileID,
		arg.UserID,
		arg.PasswordHash,
		arg.ExpiresAt,
	)

	return scanShare(row)
}

// GetShareByToken fetches a share regardless of its active or expiry
// state; sharing.Verify is the one place that decides whether access is
// granted.
func (q *Queries) GetShareByToken(ctx context.Context, token string) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE share_token = $1`
	return scanShare(q.db.QueryRow(ctx, query, token))
}

func (q *Queries) GetShareByID(ctx context.Context, shareID int64, userID int64) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE id = $1 AND user_id = $2`
	return scanShare(q.db.QueryRow(ctx, query, shareID, userID))
}

func (q *Queries) ListSharesForUser(ctx context.Context, userID int64, limit int, offset int) ([]models.Share, error) {
	query := `
		SELECT ` + shareColumns + `
		FROM shares
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		var share models.Share
		err := rows.Scan(
			&share.ID,
			&share.ShareToken,
			&share.FileID,
			&share.UserID,
			&share.PasswordHash,
			&share.ExpiresAt,
			&share.ViewCount,
			&share.DownloadCount,
			&share.IsActive,
			&share.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if shares == nil {
		return []models.Share{}, nil
	}

	return shares, nil
}

// DeactivateShare is the only way a share dies. One-way: there is no
// re-activation and the row is never removed.
func (q *Queries) DeactivateShare(ctx context.Context, shareID int64, userID int64) (bool, error) {
	query := `
		UPDATE shares
		SET is_active = FALSE
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE
	`
	res, err := q.db.Exec(ctx, query, shareID, userID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) IncrementShareViewCount(ctx context.Context, shareID int64) error {
	query := `UPDATE shares SET view_count = view_count + 1 WHERE id = $1`
	_, err := q.db.Exec(ctx, query, shareID)
	return err
}

func (q *Queries) IncrementShareDownloadCount(ctx context.Context, shareID int64) error {
	query := `UPDATE shares SET download_count = download_count + 1 WHERE id = $1`
	_, err := q.db.Exec(ctx, query, shareID)
	return err
}
