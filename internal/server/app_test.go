package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wsdrive/internal/server/config"
	"github.com/dmitrijs2005/wsdrive/internal/server/storage"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StorageBackend = config.StorageMemory
	c.SweepSchedule = ""
	return c
}

func TestNewObjectStore_Backends(t *testing.T) {
	c := testConfig()

	s, err := NewObjectStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, s)

	c.StorageBackend = config.StorageMinio
	c.S3BaseEndpoint = "http://127.0.0.1:9000"
	s, err = NewObjectStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &storage.MinioStore{}, s)

	c.StorageBackend = config.StorageS3
	s, err = NewObjectStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &storage.S3Store{}, s)

	c.StorageBackend = "ftp"
	_, err = NewObjectStore(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func withOpenDB(t *testing.T, f func(string) (*sql.DB, error)) {
	t.Helper()
	prev := openDB
	openDB = f
	t.Cleanup(func() { openDB = prev })
}

func TestNewApp_OpenDBError(t *testing.T) {
	withOpenDB(t, func(string) (*sql.DB, error) { return nil, errors.New("bad dsn") })

	_, err := NewApp(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestNewApp_MigrationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectExec(".*").WillReturnError(errors.New("permission denied"))
	mock.ExpectQuery(".*").WillReturnError(errors.New("permission denied"))
	mock.ExpectClose()

	withOpenDB(t, func(string) (*sql.DB, error) { return db, nil })

	_, err = NewApp(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db migration error")
}

func TestNewApp_UnknownLogBackend(t *testing.T) {
	c := testConfig()
	c.LogBackend = "syslog"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}
