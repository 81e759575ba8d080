// Package server wires configuration, storage, the trash database and the
// HTTP API into a runnable application with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/wsdrive/internal/logging"
	"github.com/dmitrijs2005/wsdrive/internal/server/config"
	"github.com/dmitrijs2005/wsdrive/internal/server/httpapi"
	"github.com/dmitrijs2005/wsdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wsdrive/internal/server/services"
	"github.com/dmitrijs2005/wsdrive/internal/server/storage"
	"github.com/dmitrijs2005/wsdrive/internal/server/sweep"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	fileService  *services.FileService
	trashService *services.TrashService
	scheduler    *sweep.Scheduler
}

// NewApp builds every dependency of the server. The database is migrated
// before the app is returned.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, os.Stdout, c.Debug)
	if err != nil {
		return nil, err
	}

	store, err := NewObjectStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	fs := services.NewFileService(store, logger, c)
	ts := services.NewTrashService(db, rm, store, logger, c)

	sc, err := sweep.NewScheduler(c.SweepSchedule, ts, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, fileService: fs, trashService: ts, scheduler: sc}, nil
}

// NewObjectStore returns the ObjectStore selected by c.StorageBackend.
func NewObjectStore(ctx context.Context, c *config.Config) (storage.ObjectStore, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		return storage.NewS3Store(ctx, storage.S3Options{
			Region:        c.S3Region,
			AccessKey:     c.S3RootUser,
			SecretKey:     c.S3RootPassword,
			BaseEndpoint:  c.S3BaseEndpoint,
			Bucket:        c.S3Bucket,
			PublicBaseURL: c.PublicURLBase(),
			Concurrency:   c.ListConcurrency,
		})
	case config.StorageMinio:
		return storage.NewMinioStore(storage.MinioOptions{
			Endpoint:      c.S3BaseEndpoint,
			AccessKey:     c.S3RootUser,
			SecretKey:     c.S3RootPassword,
			Region:        c.S3Region,
			Bucket:        c.S3Bucket,
			PublicBaseURL: c.PublicBaseURL,
			Concurrency:   c.ListConcurrency,
		})
	case config.StorageMemory:
		return storage.NewMemoryStore(c.PublicURLBase(), c.S3Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

// TrashService exposes the trash service to the one-shot sweeper.
func (app *App) TrashService() *services.TrashService {
	return app.trashService
}

// Logger returns the configured application logger.
func (app *App) Logger() logging.Logger {
	return app.logger
}

func (app *App) Close() error {
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.fileService, app.trashService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or the HTTP server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.scheduler.Run(ctx)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
