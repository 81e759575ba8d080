package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/dbx"
	"github.com/dmitrijs2005/wsdrive/internal/logging"
	"github.com/dmitrijs2005/wsdrive/internal/server/config"
	"github.com/dmitrijs2005/wsdrive/internal/server/models"
	"github.com/dmitrijs2005/wsdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wsdrive/internal/server/repositories/trash"
	"github.com/dmitrijs2005/wsdrive/internal/server/storage"
)

// Sweep detail statuses and failure reasons.
const (
	SweepStatusSuccess = "success"
	SweepStatusError   = "error"

	ReasonStorage  = "storage"
	ReasonDB       = "db"
	ReasonNotFound = "not_found"
)

// orphanGrace keeps adoption away from objects that a concurrent
// MoveToTrash may still be recording.
const orphanGrace = time.Minute

// SweepDetail is the outcome for one expired entry.
type SweepDetail struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SweepSummary is returned by Sweep and printed by the sweeper.
type SweepSummary struct {
	Processed    int           `json:"processed"`
	SuccessCount int           `json:"successCount"`
	FailCount    int           `json:"failCount"`
	Details      []SweepDetail `json:"details"`
	// Adopted counts untracked trash objects recorded before selection.
	Adopted int `json:"adopted,omitempty"`
}

// ReconcileReport lists the divergences found between the trash table and
// the trash prefix of one workspace.
type ReconcileReport struct {
	WorkspaceID string `json:"workspaceId"`
	// DeletedRecords are ids of rows whose object was gone; they were removed.
	DeletedRecords []string `json:"deletedRecords"`
	// AdoptedRecords are ids of rows created for trash objects that had none.
	AdoptedRecords []string `json:"adoptedRecords"`
	// UntrackedObjects are trash objects still without a row: too recent to
	// adopt or failed to insert.
	UntrackedObjects []string `json:"untrackedObjects"`
}

// OrphanError reports a file that reached the trash prefix without a row.
// It matches common.ErrOrphanInconsistency and the insert error. The object
// is adopted by the next Reconcile or Sweep.
type OrphanError struct {
	TrashPath string
	Err       error
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("%v: %s: %v", common.ErrOrphanInconsistency, e.TrashPath, e.Err)
}

func (e *OrphanError) Unwrap() []error {
	return []error{common.ErrOrphanInconsistency, e.Err}
}

// purgeError carries the sweep failure reason alongside the cause.
type purgeError struct {
	reason string
	err    error
}

func (e *purgeError) Error() string { return e.err.Error() }
func (e *purgeError) Unwrap() error { return e.err }

// TrashService implements soft-delete, restore and purge. The trash row is
// the lock: restore and purge run in a transaction holding SELECT ... FOR
// UPDATE on it, so of two racing calls the loser sees common.ErrRecordMissing.
type TrashService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	logger      logging.Logger
	retention   time.Duration
	now         func() time.Time
	newID       func() string
}

func NewTrashService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, logger logging.Logger, cfg *config.Config) *TrashService {
	retention := cfg.TrashRetention
	if retention <= 0 {
		retention = config.DefaultTrashRetention
	}
	return &TrashService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger,
		retention:   retention,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// MoveToTrash parks a live file under trash/{ws}/ and records it. When the
// move succeeds but the insert fails the object stays in the trash prefix
// untracked and an *OrphanError naming it is returned.
func (s *TrashService) MoveToTrash(ctx context.Context, ws, path string) (*models.TrashEntry, error) {
	path, err := scopedPath(ws, path)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Stat(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("trash %s: %w", path, err)
	}
	if obj.IsMarker() {
		return nil, fmt.Errorf("%w: folder markers cannot be trashed", common.ErrorValidation)
	}

	now := s.now().UTC()
	entry := &models.TrashEntry{
		ID:           s.newID(),
		WorkspaceID:  ws,
		OriginalPath: path,
		FileName:     obj.Metadata.OriginalName,
		FileSize:     obj.Metadata.SizeBytes,
		ContentType:  obj.Metadata.MimeType,
		TrashPath:    TrashPath(ws, now, obj.Name),
		DeletedAt:    now,
		ExpiresAt:    now.Add(s.retention),
	}

	if err := s.store.Move(ctx, path, entry.TrashPath); err != nil {
		return nil, fmt.Errorf("trash %s: %w", path, err)
	}

	if err := s.repomanager.Trash(s.db).Insert(ctx, entry); err != nil {
		s.logger.Error(ctx, "orphaned trash object", "workspace", ws, "trash_path", entry.TrashPath,
			"original_path", path, "error", err)
		return nil, &OrphanError{TrashPath: entry.TrashPath, Err: err}
	}

	s.logger.Info(ctx, "file moved to trash", "workspace", ws, "id", entry.ID, "path", path)
	return entry, nil
}

// Restore moves the object back to its original path and drops the row.
// A missing row yields common.ErrRecordMissing. A row whose object is gone
// is deleted and common.ErrObjectMissing is returned. An occupied original
// path yields common.ErrorConflict and keeps the row.
func (s *TrashService) Restore(ctx context.Context, ws, id string) (*models.TrashEntry, error) {
	if err := validateWorkspace(ws); err != nil {
		return nil, err
	}

	var restored *models.TrashEntry
	objectMissing := false

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Trash(tx)

		e, err := repo.GetForUpdate(ctx, ws, id)
		if err != nil {
			return recordErr(id, err)
		}

		if err := s.store.Move(ctx, e.TrashPath, e.OriginalPath); err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("restore %s: %w", id, err)
			}
			s.logger.Warn(ctx, "trash record without object, dropping it", "id", id, "trash_path", e.TrashPath)
			if err := repo.Delete(ctx, e.ID); err != nil {
				return fmt.Errorf("drop dangling record %s: %w", id, err)
			}
			objectMissing = true
			return nil
		}

		if err := repo.Delete(ctx, e.ID); err != nil {
			// the object is live again; the row now points at nothing and
			// will be healed by the next purge or reconcile
			s.logger.Error(ctx, "restored file but could not drop trash record", "id", id, "error", err)
			return fmt.Errorf("restore %s: %w", id, err)
		}
		restored = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	if objectMissing {
		return nil, fmt.Errorf("restore %s: %w", id, common.ErrObjectMissing)
	}

	s.logger.Info(ctx, "file restored", "workspace", ws, "id", id, "path", restored.OriginalPath)
	return restored, nil
}

// PermanentlyDelete removes the trashed object and its row. A missing object
// is healed by dropping the row; any other storage failure keeps the row.
func (s *TrashService) PermanentlyDelete(ctx context.Context, ws, id string) error {
	if err := validateWorkspace(ws); err != nil {
		return err
	}
	if err := s.purge(ctx, ws, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "trash entry purged", "workspace", ws, "id", id)
	return nil
}

// ListTrash returns the workspace's trash entries, newest first.
func (s *TrashService) ListTrash(ctx context.Context, ws string) ([]*models.TrashEntry, error) {
	if err := validateWorkspace(ws); err != nil {
		return nil, err
	}
	entries, err := s.repomanager.Trash(s.db).ListByWorkspace(ctx, ws)
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	if entries == nil {
		entries = []*models.TrashEntry{}
	}
	return entries, nil
}

// Sweep adopts untracked trash objects, then purges every entry that expired
// at or before the current time. Each entry is purged in its own transaction;
// failures are recorded and the sweep moves on.
func (s *TrashService) Sweep(ctx context.Context) (*SweepSummary, error) {
	adopted := s.adoptAll(ctx)
	now := s.now().UTC()

	expired, err := s.repomanager.Trash(s.db).SelectExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("select expired: %w", err)
	}

	summary := &SweepSummary{Details: []SweepDetail{}, Adopted: adopted}
	for _, e := range expired {
		d := SweepDetail{ID: e.ID, Status: SweepStatusSuccess}
		if err := s.purge(ctx, e.WorkspaceID, e.ID); err != nil {
			d.Status = SweepStatusError
			d.Reason = ReasonDB
			var pe *purgeError
			if errors.As(err, &pe) {
				d.Reason = pe.reason
			}
			d.Error = err.Error()
			s.logger.Warn(ctx, "sweep: purge failed", "id", e.ID, "reason", d.Reason, "error", err)
		}
		summary.Details = append(summary.Details, d)
	}

	summary.Processed = len(summary.Details)
	for _, d := range summary.Details {
		if d.Status == SweepStatusSuccess {
			summary.SuccessCount++
		}
	}
	summary.FailCount = summary.Processed - summary.SuccessCount

	s.logger.Info(ctx, "sweep finished", "adopted", summary.Adopted, "processed", summary.Processed,
		"success", summary.SuccessCount, "failed", summary.FailCount)
	return summary, nil
}

// Reconcile audits one workspace: rows whose object is missing are deleted,
// objects under the trash prefix without a row are adopted.
func (s *TrashService) Reconcile(ctx context.Context, ws string) (*ReconcileReport, error) {
	if err := validateWorkspace(ws); err != nil {
		return nil, err
	}
	repo := s.repomanager.Trash(s.db)

	tracked, err := repo.ListTrashPaths(ctx, ws)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	objs, err := s.store.List(ctx, trashPrefix(ws))
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	report := &ReconcileReport{WorkspaceID: ws, DeletedRecords: []string{}}
	present := make(map[string]bool, len(objs))
	for _, o := range objs {
		if !o.IsFolder {
			present[o.Path] = true
		}
	}

	for path, id := range tracked {
		if present[path] {
			continue
		}
		if err := repo.Delete(ctx, id); err != nil {
			// a concurrent restore or purge got there first
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			return nil, fmt.Errorf("reconcile: drop %s: %w", id, err)
		}
		report.DeletedRecords = append(report.DeletedRecords, id)
	}

	report.AdoptedRecords, report.UntrackedObjects = s.adoptUntracked(ctx, repo, ws, tracked, objs)

	if len(report.DeletedRecords) > 0 || len(report.AdoptedRecords) > 0 || len(report.UntrackedObjects) > 0 {
		s.logger.Warn(ctx, "trash diverged from storage", "workspace", ws,
			"deleted_records", len(report.DeletedRecords), "adopted_records", len(report.AdoptedRecords),
			"untracked_objects", len(report.UntrackedObjects))
	}
	return report, nil
}

// adoptAll adopts untracked objects in every workspace under the trash root.
// Errors are logged and skipped so that the sweep itself still runs.
func (s *TrashService) adoptAll(ctx context.Context) int {
	dirs, err := s.store.List(ctx, common.TrashRootPrefix)
	if err != nil {
		s.logger.Warn(ctx, "adopt: list trash root", "error", err)
		return 0
	}

	repo := s.repomanager.Trash(s.db)
	total := 0
	for _, d := range dirs {
		if !d.IsFolder || validateWorkspace(d.Name) != nil {
			continue
		}
		tracked, err := repo.ListTrashPaths(ctx, d.Name)
		if err != nil {
			s.logger.Warn(ctx, "adopt: list trash records", "workspace", d.Name, "error", err)
			continue
		}
		objs, err := s.store.List(ctx, d.Path)
		if err != nil {
			s.logger.Warn(ctx, "adopt: list trash objects", "workspace", d.Name, "error", err)
			continue
		}
		adopted, _ := s.adoptUntracked(ctx, repo, d.Name, tracked, objs)
		total += len(adopted)
	}
	return total
}

// adoptUntracked inserts rows for objects of objs missing from tracked. It
// returns the new ids and the paths left untracked.
func (s *TrashService) adoptUntracked(ctx context.Context, repo trash.Repository, ws string,
	tracked map[string]string, objs []storage.Object) (adopted, untracked []string) {
	adopted, untracked = []string{}, []string{}
	now := s.now().UTC()

	for _, o := range objs {
		if o.IsFolder {
			continue
		}
		if _, ok := tracked[o.Path]; ok {
			continue
		}
		e, err := s.adopt(ctx, repo, ws, o.Path, now)
		if err != nil {
			s.logger.Warn(ctx, "could not adopt trash object", "workspace", ws, "trash_path", o.Path, "error", err)
			untracked = append(untracked, o.Path)
			continue
		}
		if e == nil {
			untracked = append(untracked, o.Path)
			continue
		}
		s.logger.Info(ctx, "adopted trash object", "workspace", ws, "id", e.ID, "trash_path", e.TrashPath)
		adopted = append(adopted, e.ID)
	}
	return adopted, untracked
}

// adopt records the object at trashPath. Deletion time comes from the
// millisecond prefix of its name, falling back to the object's mtime. The
// original folder is not recoverable, so the entry restores to the
// workspace root. A nil entry with a nil error means the object is younger
// than orphanGrace.
func (s *TrashService) adopt(ctx context.Context, repo trash.Repository, ws, trashPath string, now time.Time) (*models.TrashEntry, error) {
	obj, err := s.store.Stat(ctx, trashPath)
	if err != nil {
		return nil, err
	}

	deletedAt, name := parseTrashName(obj.Name)
	if deletedAt.IsZero() {
		deletedAt = obj.UpdatedAt.UTC()
	}
	if now.Sub(deletedAt) < orphanGrace {
		return nil, nil
	}

	e := &models.TrashEntry{
		ID:           s.newID(),
		WorkspaceID:  ws,
		OriginalPath: storage.JoinPath(ws, name),
		FileName:     name,
		ContentType:  common.DefaultContentType,
		TrashPath:    trashPath,
		DeletedAt:    deletedAt,
		ExpiresAt:    deletedAt.Add(s.retention),
	}
	if obj.HasMetadata {
		if obj.Metadata.OriginalName != "" {
			e.FileName = obj.Metadata.OriginalName
		}
		if obj.Metadata.MimeType != "" {
			e.ContentType = obj.Metadata.MimeType
		}
		e.FileSize = obj.Metadata.SizeBytes
	}

	if err := repo.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// purge deletes the object first and the row second, under the row lock.
func (s *TrashService) purge(ctx context.Context, ws, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Trash(tx)

		e, err := repo.GetForUpdate(ctx, ws, id)
		if err != nil {
			err = recordErr(id, err)
			if errors.Is(err, common.ErrorNotFound) {
				return &purgeError{reason: ReasonNotFound, err: err}
			}
			return &purgeError{reason: ReasonDB, err: err}
		}

		res := s.store.Remove(ctx, []string{e.TrashPath})
		if rerr := res[0].Err; rerr != nil {
			if !errors.Is(rerr, common.ErrorNotFound) {
				return &purgeError{reason: ReasonStorage, err: fmt.Errorf("purge %s: %w", id, rerr)}
			}
			s.logger.Warn(ctx, "trash record without object, dropping it", "id", id, "trash_path", e.TrashPath)
		}

		if err := repo.Delete(ctx, e.ID); err != nil {
			s.logger.Error(ctx, "purged object but could not drop trash record", "id", id, "error", err)
			return &purgeError{reason: ReasonDB, err: fmt.Errorf("purge %s: %w", id, err)}
		}
		return nil
	})
}

func recordErr(id string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("trash entry %s: %w", id, common.ErrRecordMissing)
	}
	return fmt.Errorf("trash entry %s: %w", id, err)
}
