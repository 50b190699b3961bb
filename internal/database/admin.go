package database

import (
	"context"

	"holabox/internal/models"
)

func (q *Queries) ListUsers(ctx context.Context, limit int, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := q.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
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
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if users == nil {
		return []models.User{}, nil
	}

	return users, nil
}

func (q *Queries) SetUserActive(ctx context.Context, userID int64, active bool) (bool, error) {
	query := `UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`
	res, err := q.db.Exec(ctx, query, active, userID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

type ServiceStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalFiles       int64 `json:"total_files"`
	TotalBytesStored int64 `json:"total_bytes_stored"`
	ActiveShares     int64 `json:"active_shares"`
}

func (q *Queries) GetServiceStats(ctx context.Context) (*ServiceStats, error) {
	query := `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM files WHERE is_deleted = FALSE),
			(SELECT COALESCE(sum(file_size), 0) FROM files WHERE is_deleted = FALSE),
			(SELECT count(*) FROM shares WHERE is_active = TRUE)
	`
	var stats ServiceStats
	err := q.db.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.TotalFiles,
		&stats.TotalBytesStored,
		&stats.ActiveShares,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
