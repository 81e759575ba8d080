// Package models holds the client-side view of API payloads.
package models

import "time"

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

type BatchFailure struct {
	Path     string `json:"path"`
	Error    string `json:"error"`
	NotFound bool   `json:"notFound"`
}

// BatchResult is the outcome of a multi-path delete. Deleted paths stay
// deleted even when others failed.
type BatchResult struct {
	Deleted []string       `json:"deleted"`
	Failed  []BatchFailure `json:"failed"`
	Missing []string       `json:"missing,omitempty"`
}
