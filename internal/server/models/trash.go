package models

import "time"

// TrashEntry tracks one soft-deleted file. Every row corresponds to exactly
// one object stored at TrashPath.
type TrashEntry struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspaceId"`
	OriginalPath string    `json:"originalPath"`
	FileName     string    `json:"fileName"`
	FileSize     int64     `json:"fileSize"`
	ContentType  string    `json:"contentType"`
	TrashPath    string    `json:"trashPath"`
	DeletedAt    time.Time `json:"deletedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
