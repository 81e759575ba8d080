package trash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/dbx"
	"github.com/dmitrijs2005/wsdrive/internal/server/models"
)

const selectColumns = `id, workspace_id, original_path, file_name, file_size, content_type, trash_path, deleted_at, expires_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, e *models.TrashEntry) error {
	query :=
		`INSERT INTO trash_files (id, workspace_id, original_path, file_name, file_size, content_type, trash_path, deleted_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.WorkspaceID, e.OriginalPath, e.FileName, e.FileSize, e.ContentType, e.TrashPath, e.DeletedAt, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, workspaceID, id string) (*models.TrashEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM trash_files
		 WHERE id = $1 AND workspace_id = $2
		 FOR UPDATE
		 `

	e := &models.TrashEntry{}
	err := scanEntry(r.db.QueryRowContext(ctx, query, id, workspaceID), e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM trash_files WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ListByWorkspace returns the workspace's entries, newest first.
func (r *PostgresRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.TrashEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM trash_files
		 WHERE workspace_id = $1
		 ORDER BY deleted_at DESC
		 `
	return r.query(ctx, query, workspaceID)
}

// SelectExpired returns every entry with expires_at <= now, oldest first.
func (r *PostgresRepository) SelectExpired(ctx context.Context, now time.Time) ([]*models.TrashEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM trash_files
		 WHERE expires_at <= $1
		 ORDER BY expires_at
		 `
	return r.query(ctx, query, now)
}

// ListTrashPaths maps trash_path to id for one workspace.
func (r *PostgresRepository) ListTrashPaths(ctx context.Context, workspaceID string) (map[string]string, error) {
	query := `SELECT id, trash_path FROM trash_files WHERE workspace_id = $1`

	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select trash paths: %w", err)
	}
	defer rows.Close()

	result := map[string]string{}
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		result[path] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.TrashEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select trash entries: %w", err)
	}
	defer rows.Close()

	var result []*models.TrashEntry
	for rows.Next() {
		e := &models.TrashEntry{}
		if err := scanEntry(rows, e); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner, e *models.TrashEntry) error {
	return s.Scan(&e.ID, &e.WorkspaceID, &e.OriginalPath, &e.FileName, &e.FileSize,
		&e.ContentType, &e.TrashPath, &e.DeletedAt, &e.ExpiresAt)
}
