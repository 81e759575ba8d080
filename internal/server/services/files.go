// Package services contains the server-side business logic: FileService
// emulates folders and manages live files on top of storage.ObjectStore, and
// TrashService implements the soft-delete lifecycle backed by the trash table.
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/logging"
	"github.com/dmitrijs2005/wsdrive/internal/server/config"
	"github.com/dmitrijs2005/wsdrive/internal/server/models"
	"github.com/dmitrijs2005/wsdrive/internal/server/storage"
)

// ListFilesOptions selects what ListFiles returns.
type ListFilesOptions struct {
	// Folder is relative to the workspace; empty means the workspace root.
	Folder    string
	Recursive bool
	// Query keeps only files whose display name contains it, ignoring case.
	Query string
}

// UploadRequest describes one file upload.
type UploadRequest struct {
	Folder      string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type FileService struct {
	store        storage.ObjectStore
	logger       logging.Logger
	signedURLTTL time.Duration
	concurrency  int
	now          func() time.Time
}

func NewFileService(store storage.ObjectStore, logger logging.Logger, cfg *config.Config) *FileService {
	concurrency := cfg.ListConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &FileService{
		store:        store,
		logger:       logger,
		signedURLTTL: cfg.SignedURLValidity,
		concurrency:  concurrency,
		now:          time.Now,
	}
}

// ListFolders returns the names of the workspace's top-level folders in
// ascending order.
func (s *FileService) ListFolders(ctx context.Context, ws string) ([]string, error) {
	if err := validateWorkspace(ws); err != nil {
		return nil, err
	}

	objs, err := s.store.List(ctx, ws)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	folders := []string{}
	for _, o := range objs {
		if o.IsFolder {
			folders = append(folders, o.Name)
		}
	}
	return folders, nil
}

// CreateFolder writes the folder marker. Creating an existing folder
// rewrites its marker and succeeds.
func (s *FileService) CreateFolder(ctx context.Context, ws, name string) (string, error) {
	if err := validateWorkspace(ws); err != nil {
		return "", err
	}
	name, err := validateFolderName(name)
	if err != nil {
		return "", err
	}

	marker := storage.JoinPath(ws, name, common.MarkerFileName)
	meta := storage.FileMetadata{
		OriginalName: common.MarkerFileName,
		MimeType:     "text/plain",
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Put(ctx, marker, bytes.NewReader(nil), 0, meta, true); err != nil {
		return "", fmt.Errorf("create folder %s: %w", name, err)
	}

	s.logger.Info(ctx, "folder created", "workspace", ws, "folder", name)
	return name, nil
}

// DeleteFolder enumerates every object below the folder, nested markers
// included, and removes them together with the folder marker in one batch.
// Paths that vanished in between are reported as Missing, not as failures.
func (s *FileService) DeleteFolder(ctx context.Context, ws, name string) (*BatchResult, error) {
	if err := validateWorkspace(ws); err != nil {
		return nil, err
	}
	name, err := validateFolderName(name)
	if err != nil {
		return nil, err
	}
	prefix := storage.JoinPath(ws, name)

	objs, err := s.walk(ctx, prefix, true)
	if err != nil {
		return nil, fmt.Errorf("delete folder %s: %w", name, err)
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("folder %s: %w", name, common.ErrorNotFound)
	}

	marker := storage.JoinPath(prefix, common.MarkerFileName)
	paths := make([]string, 0, len(objs)+1)
	hasMarker := false
	for _, o := range objs {
		paths = append(paths, o.Path)
		hasMarker = hasMarker || o.Path == marker
	}
	if !hasMarker {
		paths = append(paths, marker)
	}

	res := newBatchResult(s.store.Remove(ctx, paths), true)
	if !hasMarker {
		res.Missing = removeString(res.Missing, marker)
	}

	if res.Partial() {
		s.logger.Warn(ctx, "folder partially deleted", "workspace", ws, "folder", name,
			"deleted", len(res.Deleted), "failed", len(res.Failed))
	} else {
		s.logger.Info(ctx, "folder deleted", "workspace", ws, "folder", name, "deleted", len(res.Deleted))
	}
	return res, nil
}

// ListFiles returns the files under the workspace root or a folder. Markers
// are never returned. With Recursive set every sub-prefix is walked and the
// result is flattened.
func (s *FileService) ListFiles(ctx context.Context, ws string, opts ListFilesOptions) ([]models.FileItem, error) {
	prefix, err := folderPrefix(ws, opts.Folder)
	if err != nil {
		return nil, err
	}

	var objs []storage.Object
	if opts.Recursive {
		objs, err = s.walk(ctx, prefix, false)
	} else {
		objs, err = s.store.List(ctx, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	items := []models.FileItem{}
	for _, o := range objs {
		if o.IsFolder || o.IsMarker() {
			continue
		}
		item := s.fileItem(o)
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Upload stores the file under its sanitized name. An existing object with
// the same key is replaced.
func (s *FileService) Upload(ctx context.Context, ws string, req UploadRequest) (*models.FileItem, error) {
	prefix, err := folderPrefix(ws, req.Folder)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.FileName)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: invalid file name %q", common.ErrorValidation, req.FileName)
	}
	key := SanitizeFileName(name)
	if key == common.MarkerFileName || strings.Trim(key, ".") == "" {
		return nil, fmt.Errorf("%w: reserved file name %q", common.ErrorValidation, req.FileName)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	path := storage.JoinPath(prefix, key)
	meta := storage.FileMetadata{
		Version:      storage.MetadataVersion,
		OriginalName: name,
		MimeType:     contentType,
		SizeBytes:    req.Size,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Put(ctx, path, req.Body, req.Size, meta, true); err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	s.logger.Info(ctx, "file uploaded", "workspace", ws, "path", path, "size", req.Size)

	return &models.FileItem{
		ID:           path,
		Name:         name,
		OriginalName: key,
		Size:         req.Size,
		Type:         contentType,
		Path:         path,
		CreatedAt:    meta.CreatedAt,
		UpdatedAt:    meta.CreatedAt,
		URL:          s.store.PublicURL(path),
	}, nil
}

// DeleteFiles permanently removes the given files. Every path is attempted;
// stale paths are reported as not-found failures.
func (s *FileService) DeleteFiles(ctx context.Context, ws string, paths []string) (*BatchResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths given", common.ErrorValidation)
	}
	scoped := make([]string, 0, len(paths))
	for _, p := range paths {
		sp, err := scopedPath(ws, p)
		if err != nil {
			return nil, err
		}
		scoped = append(scoped, sp)
	}

	res := newBatchResult(s.store.Remove(ctx, scoped), false)
	s.logger.Info(ctx, "files deleted", "workspace", ws, "deleted", len(res.Deleted), "failed", len(res.Failed))
	return res, nil
}

// MoveFile moves a file into targetFolder, keeping its key. An empty target
// means the workspace root; moving onto the current location is a no-op.
// An occupied destination yields common.ErrorConflict.
func (s *FileService) MoveFile(ctx context.Context, ws, path, targetFolder string) (string, error) {
	from, err := scopedPath(ws, path)
	if err != nil {
		return "", err
	}
	prefix, err := folderPrefix(ws, targetFolder)
	if err != nil {
		return "", err
	}

	name := storage.BaseName(from)
	if name == common.MarkerFileName {
		return "", fmt.Errorf("%w: folder markers cannot be moved", common.ErrorValidation)
	}
	to := storage.JoinPath(prefix, name)
	if to == from {
		return from, nil
	}

	if err := s.store.Move(ctx, from, to); err != nil {
		return "", fmt.Errorf("move %s: %w", from, err)
	}

	s.logger.Info(ctx, "file moved", "workspace", ws, "from", from, "to", to)
	return to, nil
}

// SignedURL returns a time-limited download URL for a live file.
func (s *FileService) SignedURL(ctx context.Context, ws, path string) (string, error) {
	p, err := scopedPath(ws, path)
	if err != nil {
		return "", err
	}
	u, err := s.store.SignedURL(ctx, p, s.signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("signed url %s: %w", p, err)
	}
	return u, nil
}

// walk lists prefix and every sub-prefix below it, one level per List call,
// and returns the flattened objects in listing order. Sub-prefixes of one
// level are listed in parallel.
func (s *FileService) walk(ctx context.Context, prefix string, includeMarkers bool) ([]storage.Object, error) {
	objs, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	slots := make([][]storage.Object, len(objs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, o := range objs {
		switch {
		case o.IsFolder:
			g.Go(func() error {
				sub, err := s.walk(gctx, o.Path, includeMarkers)
				if err != nil {
					return err
				}
				slots[i] = sub
				return nil
			})
		case o.IsMarker() && !includeMarkers:
		default:
			slots[i] = []storage.Object{o}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []storage.Object
	for _, slot := range slots {
		out = append(out, slot...)
	}
	return out, nil
}

func (s *FileService) fileItem(o storage.Object) models.FileItem {
	return models.FileItem{
		ID:           o.Path,
		Name:         o.Metadata.OriginalName,
		OriginalName: o.Name,
		Size:         o.Metadata.SizeBytes,
		Type:         o.Metadata.MimeType,
		Path:         o.Path,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		URL:          s.store.PublicURL(o.Path),
	}
}

func removeString(xs []string, v string) []string {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
