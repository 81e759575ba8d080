package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/wsdrive/internal/client/config"
	"github.com/dmitrijs2005/wsdrive/internal/client/models"
	"github.com/dmitrijs2005/wsdrive/internal/common"
)

// fakeClient records calls and serves canned data.
type fakeClient struct {
	token    string
	pingErr  error
	allowed  map[string]bool
	calls    []string
	files    []models.FileItem
	uploaded map[string]string
	signed   string
	batch    *models.BatchResult
	moveErr  error
	trash    []models.TrashEntry
}

func newFakeClient() *fakeClient {
	return &fakeClient{allowed: map[string]bool{"ws1": true}, uploaded: map[string]string{}}
}

func (f *fakeClient) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeClient) SetToken(token string) { f.token = token }

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) ListFolders(_ context.Context, ws string) ([]string, error) {
	f.record("folders %s", ws)
	if f.token == "" {
		return nil, fmt.Errorf("unauthorized")
	}
	if !f.allowed[ws] {
		return nil, fmt.Errorf("%w: workspace not accessible", common.ErrorForbidden)
	}
	return []string{"Docs"}, nil
}

func (f *fakeClient) CreateFolder(_ context.Context, ws, name string) (string, error) {
	f.record("mkdir %s %s", ws, name)
	return name, nil
}

func (f *fakeClient) DeleteFolder(_ context.Context, ws, name string) (*models.BatchResult, error) {
	f.record("rmdir %s %s", ws, name)
	return f.batch, nil
}

func (f *fakeClient) ListFiles(_ context.Context, ws, folder string, recursive bool, query string) ([]models.FileItem, error) {
	f.record("ls %s folder=%s r=%t q=%s", ws, folder, recursive, query)
	return f.files, nil
}

func (f *fakeClient) Upload(_ context.Context, ws, folder, fileName string, body io.Reader) (*models.FileItem, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.record("upload %s %s %s", ws, folder, fileName)
	f.uploaded[fileName] = string(b)
	return &models.FileItem{Path: ws + "/" + fileName, Size: int64(len(b))}, nil
}

func (f *fakeClient) DeleteFiles(_ context.Context, ws string, paths []string) (*models.BatchResult, error) {
	f.record("rm %s %s", ws, strings.Join(paths, ","))
	return f.batch, nil
}

func (f *fakeClient) MoveFile(_ context.Context, ws, path, targetFolder string) (string, error) {
	f.record("mv %s %s %q", ws, path, targetFolder)
	if f.moveErr != nil {
		return "", f.moveErr
	}
	return ws + "/" + targetFolder, nil
}

func (f *fakeClient) SignedURL(_ context.Context, ws, path string) (string, error) {
	f.record("url %s %s", ws, path)
	return f.signed, nil
}

func (f *fakeClient) ListTrash(_ context.Context, ws string) ([]models.TrashEntry, error) {
	f.record("trashls %s", ws)
	return f.trash, nil
}

func (f *fakeClient) MoveToTrash(_ context.Context, ws, path string) (*models.TrashEntry, error) {
	f.record("trash %s %s", ws, path)
	return &models.TrashEntry{ID: "t1", OriginalPath: path, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}, nil
}

func (f *fakeClient) Restore(_ context.Context, ws, id string) (*models.TrashEntry, error) {
	f.record("restore %s %s", ws, id)
	return &models.TrashEntry{ID: id, OriginalPath: ws + "/a.txt"}, nil
}

func (f *fakeClient) Purge(_ context.Context, ws, id string) error {
	f.record("purge %s %s", ws, id)
	return nil
}

func testApp(t *testing.T, input string, api *fakeClient) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Workspace = "ws1"
	cfg.DownloadDir = "dl"
	out := &bytes.Buffer{}
	return newApp(cfg, api, strings.NewReader(input), out), out
}

func stubSecret(t *testing.T, secret string, err error) {
	t.Helper()
	old := getSecret
	getSecret = func(string, io.Writer) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(secret), nil
	}
	t.Cleanup(func() { getSecret = old })
}
