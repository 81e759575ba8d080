// Package models defines the server-side data models returned by the
// services and persisted in the trash table.
package models

import "time"

// FileItem is the view of one live file. ID and Path coincide; Name is the
// display name taken from object metadata and OriginalName is the last
// segment of the storage key.
type FileItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"originalName"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	Path         string    `json:"path"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	URL          string    `json:"url"`
}
