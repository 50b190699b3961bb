package models

import "time"

// Path is derived once at creation from the parent's path and is not
// rewritten when an ancestor is renamed or moved.
type Folder struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	ParentID  *string    `json:"parent_id"`
	UserID    int64      `json:"user_id"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
