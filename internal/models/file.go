package models

import "time"

type File struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	FilePath         string     `json:"-"`
	FileSize         int64      `json:"file_size"`
	MimeType         *string    `json:"mime_type"`
	FolderID         *string    `json:"folder_id"`
	UserID           int64      `json:"user_id"`
	IsDeleted        bool       `json:"is_deleted"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	ViewCount        int        `json:"view_count"`
	DownloadCount    int        `json:"download_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
