// Package trash persists soft-deleted file records in the trash_files table.
package trash

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wsdrive/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, e *models.TrashEntry) error
	// GetForUpdate locks the row for the rest of the surrounding transaction.
	GetForUpdate(ctx context.Context, workspaceID, id string) (*models.TrashEntry, error)
	Delete(ctx context.Context, id string) error
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.TrashEntry, error)
	SelectExpired(ctx context.Context, now time.Time) ([]*models.TrashEntry, error)
	ListTrashPaths(ctx context.Context, workspaceID string) (map[string]string, error)
}
