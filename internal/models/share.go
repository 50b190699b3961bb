package models

import "time"

type Share struct {
	ID            int64      `json:"id"`
	ShareToken    string     `json:"share_token"`
	FileID        string     `json:"file_id"`
	UserID        int64      `json:"user_id"`
	PasswordHash  *string    `json:"-"`
	ExpiresAt     *time.Time `json:"expires_at"`
	ViewCount     int        `json:"view_count"`
	DownloadCount int        `json:"download_count"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}
