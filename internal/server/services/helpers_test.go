package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/dbx"
	"github.com/dmitrijs2005/wsdrive/internal/logging"
	"github.com/dmitrijs2005/wsdrive/internal/server/config"
	"github.com/dmitrijs2005/wsdrive/internal/server/models"
	"github.com/dmitrijs2005/wsdrive/internal/server/repositories/trash"
	"github.com/dmitrijs2005/wsdrive/internal/server/storage"
)

// memTrashRepo is a map-backed trash.Repository. Transactions are provided
// by sqlmock; the repo itself ignores the DBTX it is bound to.
type memTrashRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.TrashEntry
	insertErr error
	deleteErr error
	// phantom rows are returned by SelectExpired but not stored, as if a
	// restore won the race after the sweep fetched its batch.
	phantom []*models.TrashEntry
}

func newMemTrashRepo() *memTrashRepo {
	return &memTrashRepo{rows: map[string]*models.TrashEntry{}}
}

func (r *memTrashRepo) Insert(_ context.Context, e *models.TrashEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	cp := *e
	r.rows[e.ID] = &cp
	return nil
}

func (r *memTrashRepo) GetForUpdate(_ context.Context, ws, id string) (*models.TrashEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok || e.WorkspaceID != ws {
		return nil, common.ErrorNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memTrashRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memTrashRepo) ListByWorkspace(_ context.Context, ws string) ([]*models.TrashEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TrashEntry
	for _, e := range r.rows {
		if e.WorkspaceID == ws {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.After(out[j].DeletedAt) })
	return out, nil
}

func (r *memTrashRepo) SelectExpired(_ context.Context, now time.Time) ([]*models.TrashEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TrashEntry
	for _, e := range r.rows {
		if !e.ExpiresAt.After(now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return append(out, r.phantom...), nil
}

func (r *memTrashRepo) ListTrashPaths(_ context.Context, ws string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]string{}
	for _, e := range r.rows {
		if e.WorkspaceID == ws {
			out[e.TrashPath] = e.ID
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	repo *memTrashRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Trash(dbx.DBTX) trash.Repository          { return m.repo }

// flakyStore wraps MemoryStore and fails selected paths.
type flakyStore struct {
	*storage.MemoryStore
	removeErr map[string]error
}

func (f *flakyStore) Remove(ctx context.Context, paths []string) []storage.RemoveResult {
	var ok []string
	failed := map[string]error{}
	for _, p := range paths {
		if err, bad := f.removeErr[p]; bad {
			failed[p] = err
			continue
		}
		ok = append(ok, p)
	}
	byPath := map[string]storage.RemoveResult{}
	for _, r := range f.MemoryStore.Remove(ctx, ok) {
		byPath[r.Path] = r
	}
	out := make([]storage.RemoveResult, 0, len(paths))
	for _, p := range paths {
		if err, bad := failed[p]; bad {
			out = append(out, storage.RemoveResult{Path: p, Err: err})
			continue
		}
		out = append(out, byPath[p])
	}
	return out
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func newFileService(t *testing.T) (*FileService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore("http://files.local", "workspace-files")
	return NewFileService(store, logging.Nop(), testConfig()), store
}

type trashFixture struct {
	svc   *TrashService
	files *FileService
	store *flakyStore
	repo  *memTrashRepo
	mock  sqlmock.Sqlmock
	clock time.Time
}

func newTrashFixture(t *testing.T) *trashFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := &flakyStore{
		MemoryStore: storage.NewMemoryStore("http://files.local", "workspace-files"),
		removeErr:   map[string]error{},
	}
	repo := newMemTrashRepo()
	f := &trashFixture{
		store: store,
		repo:  repo,
		mock:  mock,
		clock: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	f.svc = NewTrashService(db, &fakeRepoManager{repo: repo}, store, logging.Nop(), testConfig())
	f.svc.now = func() time.Time { return f.clock }
	seq := 0
	f.svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	f.files = NewFileService(store, logging.Nop(), testConfig())
	return f
}

// expectTx registers one transaction ending in commit or rollback.
func (f *trashFixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func (f *trashFixture) upload(t *testing.T, ws, folder, name, body string) string {
	t.Helper()
	item, err := f.files.Upload(context.Background(), ws, UploadRequest{
		Folder:      folder,
		FileName:    name,
		ContentType: "text/plain",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	})
	require.NoError(t, err)
	return item.Path
}

func sortedKeys(s *storage.MemoryStore) []string {
	keys := s.Keys()
	sort.Strings(keys)
	return keys
}
