// Package httpapi exposes the file manager over a JSON HTTP API built on gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/wsdrive/internal/logging"
	"github.com/dmitrijs2005/wsdrive/internal/server/models"
	"github.com/dmitrijs2005/wsdrive/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// FileService is the folder and live-file API consumed by the handlers.
type FileService interface {
	ListFolders(ctx context.Context, ws string) ([]string, error)
	CreateFolder(ctx context.Context, ws, name string) (string, error)
	DeleteFolder(ctx context.Context, ws, name string) (*services.BatchResult, error)
	ListFiles(ctx context.Context, ws string, opts services.ListFilesOptions) ([]models.FileItem, error)
	Upload(ctx context.Context, ws string, req services.UploadRequest) (*models.FileItem, error)
	DeleteFiles(ctx context.Context, ws string, paths []string) (*services.BatchResult, error)
	MoveFile(ctx context.Context, ws, path, targetFolder string) (string, error)
	SignedURL(ctx context.Context, ws, path string) (string, error)
}

// TrashService is the soft-delete API consumed by the handlers.
type TrashService interface {
	MoveToTrash(ctx context.Context, ws, path string) (*models.TrashEntry, error)
	Restore(ctx context.Context, ws, id string) (*models.TrashEntry, error)
	PermanentlyDelete(ctx context.Context, ws, id string) error
	ListTrash(ctx context.Context, ws string) ([]*models.TrashEntry, error)
	Sweep(ctx context.Context) (*services.SweepSummary, error)
}

type HTTPServer struct {
	address   string
	files     FileService
	trash     TrashService
	logger    logging.Logger
	jwtSecret []byte
	engine    *gin.Engine
}

func NewHTTPServer(address string, l logging.Logger, fs FileService, ts TrashService, secretKey string) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		address:   address,
		logger:    l.With("module", "http_server"),
		files:     fs,
		trash:     ts,
		jwtSecret: []byte(secretKey),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the routed engine; tests drive it with httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID, s.accessLog)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api/v1", s.authenticate)

	ws := api.Group("/workspaces/:ws", s.workspaceScope)
	ws.GET("/folders", s.listFolders)
	ws.POST("/folders", s.createFolder)
	ws.DELETE("/folders/:name", s.deleteFolder)

	ws.GET("/files", s.listFiles)
	ws.POST("/files", s.uploadFile)
	ws.DELETE("/files", s.deleteFiles)
	ws.POST("/files/move", s.moveFile)
	ws.GET("/files/url", s.signedURL)

	ws.GET("/trash", s.listTrash)
	ws.POST("/trash", s.moveToTrash)
	ws.POST("/trash/:id/restore", s.restore)
	ws.DELETE("/trash/:id", s.purge)

	admin := api.Group("/admin", s.requireAdmin)
	admin.POST("/trash/sweep", s.sweep)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
