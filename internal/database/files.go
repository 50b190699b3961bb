package database

import (
	"context"
	"errors"

	"holabox/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrFileNotFound = errors.New("file not found or user is not the owner")
var ErrQuotaExceeded = errors.New("storage quota would be exceeded")

const fileColumns = `
	id, filename, original_filename, file_path, file_size, mime_type, folder_id,
	user_id, is_deleted, deleted_at, view_count, download_count, created_at, updated_at
`

func scanFile(row pgx.Row) (*models.File, error) {
	var file models.File
	err := row.Scan(
		&file.ID,
		&file.Filename,
		&file.OriginalFilename,
		&file.FilePath,
		&file.FileSize,
		&file.MimeType,
		&file.FolderID,
		&file.UserID,
		&file.IsDeleted,
		&file.DeletedAt,
		&file.ViewCount,
		&file.DownloadCount,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

type CreateFileParams struct {
	ID               string
	Filename         string
	OriginalFilename string
	FilePath         string
	FileSize         int64
	MimeType         *string
	FolderID         *string
	UserID           int64
}

func (q *Queries) CreateFile(ctx context.Context, arg CreateFileParams) (*models.File, error) {
	query := `
		INSERT INTO files (id, filename, original_filename, file_path, file_size, mime_type, folder_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + fileColumns

	row := q.db.QueryRow(ctx, query,
		arg.ID,
		arg.Filename,
		arg.OriginalFilename,
		arg.FilePath,
		arg.FileSize,
		arg.MimeType,
		arg.FolderID,
		arg.UserID,
	)

	file, err := scanFile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}

	return file, nil
}

func (q *Queries) FileExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM files WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (q *Queries) GetFileByID(ctx context.Context, id string, userID int64) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND user_id = $2`
	return scanFile(q.db.QueryRow(ctx, query, id, userID))
}

// ListFiles returns files in the given folder; a nil folderID means files
// outside any folder, never "all files".
func (q *Queries) ListFiles(ctx context.Context, userID int64, folderID *string, includeDeleted bool, limit int, offset int) ([]models.File, error) {
	var query string
	var rows pgx.Rows
	var err error

	if folderID == nil {
		query = `SELECT ` + fileColumns + `
				 FROM files
				 WHERE user_id = $1 AND folder_id IS NULL AND (is_deleted = FALSE OR $2)
				 LIMIT $3 OFFSET $4`
		rows, err = q.db.Query(ctx, query, userID, includeDeleted, limit, offset)
	} else {
		query = `SELECT ` + fileColumns + `
				 FROM files
				 WHERE user_id = $1 AND folder_id = $2 AND (is_deleted = FALSE OR $3)
				 LIMIT $4 OFFSET $5`
		rows, err = q.db.Query(ctx, query, userID, *folderID, includeDeleted, limit, offset)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var file models.File
		err := rows.Scan(
			&file.ID,
			&file.Filename,
			&file.OriginalFilename,
			&file.FilePath,
			&file.FileSize,
			&file.MimeType,
			&file.FolderID,
			&file.UserID,
			&file.IsDeleted,
			&file.DeletedAt,
			&file.ViewCount,
			&file.DownloadCount,
			&file.CreatedAt,
			&file.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if files == nil {
		return []models.File{}, nil
	}

	return files, nil
}

// GetSharedFile looks a file up by id alone, for access through a
// verified share token where the caller is anonymous.
func (q *Queries) GetSharedFile(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(q.db.QueryRow(ctx, query, id))
}

// MarkFileDeleted flips a live file into the trash and returns the row as
// it was before callers release its size from the ledger. Returns
// (nil, nil) when the file is absent, foreign or already deleted. Run it
// inside ExecTx together with ReleaseStorage: the flag and the ledger
// change must commit as one unit.
func (q *Queries) MarkFileDeleted(ctx context.Context, id string, userID int64) (*models.File, error) {
	query := `
		UPDATE files
		SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE
		RETURNING ` + fileColumns

	return scanFile(q.db.QueryRow(ctx, query, id, userID))
}

// GetDeletedFile returns a trashed file owned by userID, or (nil, nil).
func (q *Queries) GetDeletedFile(ctx context.Context, id string, userID int64) (*models.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE id = $1 AND user_id = $2 AND is_deleted = TRUE
	`
	return scanFile(q.db.QueryRow(ctx, query, id, userID))
}

// MarkFileRestored clears the trash flags. Callers must have reserved the
// file's size with ReserveStorage in the same transaction first.
func (q *Queries) MarkFileRestored(ctx context.Context, id string, userID int64) (bool, error) {
	query := `
		UPDATE files
		SET is_deleted = FALSE, deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_deleted = TRUE
	`
	res, err := q.db.Exec(ctx, query, id, userID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

// RenameFile changes the user-facing name; the storage key stays put.
func (q *Queries) RenameFile(ctx context.Context, id string, userID int64, newName string) (bool, error) {
	query := `
		UPDATE files
		SET original_filename = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`
	res, err := q.db.Exec(ctx, query, newName, id, userID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) MoveFile(ctx context.Context, id string, userID int64, folderID *string) (bool, error) {
	query := `
		UPDATE files
		SET folder_id = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND is_deleted = FALSE
	`
	res, err := q.db.Exec(ctx, query, folderID, id, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrFolderNotFound
		}
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) IncrementFileViewCount(ctx context.Context, id string) error {
	query := `UPDATE files SET view_count = view_count + 1 WHERE id = $1`
	_, err := q.db.Exec(ctx, query, id)
	return err
}

func (q *Queries) IncrementFileDownloadCount(ctx context.Context, id string) error {
	query := `UPDATE files SET download_count = download_count + 1 WHERE id = $1`
	_, err := q.db.Exec(ctx, query, id)
	return err
}
