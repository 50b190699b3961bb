package database

import (
	"context"
	"errors"

	"holabox/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrFolderNotFound = errors.New("folder not found or user is not the owner")

const folderColumns = `
	id, name, path, parent_id, user_id, is_deleted, deleted_at, created_at, updated_at
`

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.Path,
		&folder.ParentID,
		&folder.UserID,
		&folder.IsDeleted,
		&folder.DeletedAt,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &folder, nil
}

type CreateFolderParams struct {
	ID       string
	Name     string
	ParentID *string
	UserID   int64
}

// CreateFolder derives the folder path from its parent at creation time:
// "/name" for root folders, parent.path + "/" + name otherwise. The path
// stays frozen afterwards. A missing, foreign or trashed parent all
// collapse into ErrFolderNotFound.
func (q *Queries) CreateFolder(ctx context.Context, arg CreateFolderParams) (*models.Folder, error) {
	parentPath := ""
	if arg.ParentID != nil {
		parent, err := q.GetFolderByID(ctx, *arg.ParentID, arg.UserID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrFolderNotFound
		}
		parentPath = parent.Path
	}

	folderPath := "/" + arg.Name
	if parentPath != "" {
		folderPath = parentPath + "/" + arg.Name
	}

	query := `
		INSERT INTO folders (id, name, path, parent_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + folderColumns

	row := q.db.QueryRow(ctx, query, arg.ID, arg.Name, folderPath, arg.ParentID, arg.UserID)
	return scanFolder(row)
}

func (q *Queries) FolderExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM folders WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetFolderByID returns a live (non-deleted) folder owned by userID, or
// (nil, nil) in every other case.
func (q *Queries) GetFolderByID(ctx context.Context, id string, userID int64) (*models.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE
	`
	return scanFolder(q.db.QueryRow(ctx, query, id, userID))
}

// ListFolders returns the direct children of parentID; a nil parentID
// means the top level, never "all folders".
func (q *Queries) ListFolders(ctx context.Context, userID int64, parentID *string, includeDeleted bool, limit int, offset int) ([]models.Folder, error) {
	var query string
	var rows pgx.Rows
	var err error

	if parentID == nil {
		query = `SELECT ` + folderColumns + `
				 FROM folders
				 WHERE user_id = $1 AND parent_id IS NULL AND (is_deleted = FALSE OR $2)
				 LIMIT $3 OFFSET $4`
		rows, err = q.db.Query(ctx, query, userID, includeDeleted, limit, offset)
	} else {
		query = `SELECT ` + folderColumns + `
				 FROM folders
				 WHERE user_id = $1 AND parent_id = $2 AND (is_deleted = FALSE OR $3)
				 LIMIT $4 OFFSET $5`
		rows, err = q.db.Query(ctx, query, userID, *parentID, includeDeleted, limit, offset)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var folder models.Folder
		err := rows.Scan(
			&folder.ID,
			&folder.Name,
			&folder.Path,
			&folder.ParentID,
			&folder.UserID,
			&folder.IsDeleted,
			&folder.DeletedAt,
			&folder.CreatedAt,
			&folder.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if folders == nil {
		return []models.Folder{}, nil
	}

	return folders, nil
}

// RenameFolder changes the display name only. Paths of the folder and its
// descendants are left as they were computed at creation time.
func (q *Queries) RenameFolder(ctx context.Context, id string, userID int64, newName string) (bool, error) {
	query := `
		UPDATE folders
		SET name = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND is_deleted = FALSE
	`
	res, err := q.db.Exec(ctx, query, newName, id, userID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}
