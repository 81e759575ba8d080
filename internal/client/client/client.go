package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/wsdrive/internal/client/models"
)

type Client interface {
	SetToken(token string)
	Ping(ctx context.Context) error

	ListFolders(ctx context.Context, ws string) ([]string, error)
	CreateFolder(ctx context.Context, ws, name string) (string, error)
	DeleteFolder(ctx context.Context, ws, name string) (*models.BatchResult, error)

	ListFiles(ctx context.Context, ws, folder string, recursive bool, query string) ([]models.FileItem, error)
	Upload(ctx context.Context, ws, folder, fileName string, body io.Reader) (*models.FileItem, error)
	DeleteFiles(ctx context.Context, ws string, paths []string) (*models.BatchResult, error)
	MoveFile(ctx context.Context, ws, path, targetFolder string) (string, error)
	SignedURL(ctx context.Context, ws, path string) (string, error)

	ListTrash(ctx context.Context, ws string) ([]models.TrashEntry, error)
	MoveToTrash(ctx context.Context, ws, path string) (*models.TrashEntry, error)
	Restore(ctx context.Context, ws, id string) (*models.TrashEntry, error)
	Purge(ctx context.Context, ws, id string) error
}
