package trash

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/server/models"
)

var columns = []string{"id", "workspace_id", "original_path", "file_name", "file_size", "content_type", "trash_path", "deleted_at", "expires_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleEntry() *models.TrashEntry {
	deleted := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.TrashEntry{
		ID:           "11111111-1111-1111-1111-111111111111",
		WorkspaceID:  "ws1",
		OriginalPath: "ws1/F1/a.txt",
		FileName:     "a.txt",
		FileSize:     42,
		ContentType:  "text/plain",
		TrashPath:    "trash/ws1/1740823200000_a.txt",
		DeletedAt:    deleted,
		ExpiresAt:    deleted.Add(30 * 24 * time.Hour),
	}
}

func entryRow(rows *sqlmock.Rows, e *models.TrashEntry) *sqlmock.Rows {
	return rows.AddRow(e.ID, e.WorkspaceID, e.OriginalPath, e.FileName, e.FileSize, e.ContentType, e.TrashPath, e.DeletedAt, e.ExpiresAt)
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	e := sampleEntry()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+trash_files\s*\(id,.*expires_at\)\s*VALUES\s*\(\$1,.*\$9\)`).
		WithArgs(e.ID, e.WorkspaceID, e.OriginalPath, e.FileName, e.FileSize, e.ContentType, e.TrashPath, e.DeletedAt, e.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+trash_files`).WillReturnError(errors.New("unique violation"))

	err := repo.Insert(context.Background(), sampleEntry())
	assert.Regexp(t, `db error: .*unique violation`, err.Error())
}

func TestGetForUpdate_OK(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	e := sampleEntry()
	mock.ExpectQuery(`(?s)SELECT id, workspace_id, .* FROM trash_files\s+WHERE id = \$1 AND workspace_id = \$2\s+FOR UPDATE`).
		WithArgs(e.ID, "ws1").
		WillReturnRows(entryRow(sqlmock.NewRows(columns), e))

	got, err := repo.GetForUpdate(context.Background(), "ws1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestGetForUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("missing", "ws1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForUpdate(context.Background(), "ws1", "missing")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestGetForUpdate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(errors.New("lock timeout"))

	_, err := repo.GetForUpdate(context.Background(), "ws1", "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorNotFound))
	assert.Contains(t, err.Error(), "lock timeout")
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:   "ok",
			result: sqlmock.NewResult(0, 1),
			check:  func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:   "no row",
			result: sqlmock.NewResult(0, 0),
			check:  func(t *testing.T, err error) { assert.True(t, errors.Is(err, common.ErrorNotFound)) },
		},
		{
			name:    "db error",
			execErr: errors.New("db down"),
			check:   func(t *testing.T, err error) { assert.Regexp(t, `db error: .*db down`, err.Error()) },
		},
		{
			name:   "rows affected error",
			result: sqlmock.NewErrorResult(errors.New("rows-err")),
			check:  func(t *testing.T, err error) { assert.Regexp(t, `rows affected error: .*rows-err`, err.Error()) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			exp := mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM trash_files WHERE id = $1`)).WithArgs("id1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			tt.check(t, repo.Delete(context.Background(), "id1"))
		})
	}
}

func TestListByWorkspace_NewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	older := sampleEntry()
	newer := sampleEntry()
	newer.ID = "22222222-2222-2222-2222-222222222222"
	newer.DeletedAt = older.DeletedAt.Add(time.Hour)

	rows := sqlmock.NewRows(columns)
	entryRow(rows, newer)
	entryRow(rows, older)
	mock.ExpectQuery(`(?s)FROM trash_files\s+WHERE workspace_id = \$1\s+ORDER BY deleted_at DESC`).
		WithArgs("ws1").
		WillReturnRows(rows)

	got, err := repo.ListByWorkspace(context.Background(), "ws1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
}

func TestSelectExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	e := sampleEntry()
	mock.ExpectQuery(`(?s)FROM trash_files\s+WHERE expires_at <= \$1\s+ORDER BY expires_at`).
		WithArgs(now).
		WillReturnRows(entryRow(sqlmock.NewRows(columns), e))

	got, err := repo.SelectExpired(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.TrashPath, got[0].TrashPath)
}

func TestSelectExpired_QueryErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`expires_at <= \$1`).WillReturnError(errors.New("db err"))

	_, err := repo.SelectExpired(context.Background(), time.Now())
	assert.Regexp(t, `failed to select trash entries: .*db err`, err.Error())
}

func TestSelectExpired_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(columns)
	entryRow(rows, sampleEntry())
	entryRow(rows, sampleEntry()).RowError(1, errors.New("row-err"))
	mock.ExpectQuery(`expires_at <= \$1`).WillReturnRows(rows)

	_, err := repo.SelectExpired(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, "row-err", err.Error())
}

func TestListTrashPaths(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "trash_path"}).
		AddRow("id1", "trash/ws1/1_a.txt").
		AddRow("id2", "trash/ws1/2_b.txt")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, trash_path FROM trash_files WHERE workspace_id = $1`)).
		WithArgs("ws1").
		WillReturnRows(rows)

	got, err := repo.ListTrashPaths(context.Background(), "ws1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"trash/ws1/1_a.txt": "id1", "trash/ws1/2_b.txt": "id2"}, got)
}
