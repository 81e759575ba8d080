package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/wsdrive/internal/client/models"
	"github.com/dmitrijs2005/wsdrive/internal/common"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) wsURL(ws string, parts ...string) string {
	segs := []string{c.baseURL, "api/v1/workspaces", url.PathEscape(ws)}
	for _, p := range parts {
		segs = append(segs, url.PathEscape(p))
	}
	return strings.Join(segs, "/")
}

type apiError struct {
	Error     string `json:"error"`
	TrashPath string `json:"trashPath"`
}

// do sends req with the bearer token and decodes a JSON reply into out.
func (c *HTTPClient) do(req *http.Request, out any) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var ae apiError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&ae)
		if ae.Error == "" {
			ae.Error = resp.Status
		}
		if ae.TrashPath != "" {
			return fmt.Errorf("%w: %s (trash path %s)", statusError(resp.StatusCode), ae.Error, ae.TrashPath)
		}
		return fmt.Errorf("%w: %s", statusError(resp.StatusCode), ae.Error)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(code int) error {
	switch code {
	case http.StatusBadRequest:
		return common.ErrorValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrorForbidden
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusConflict:
		return common.ErrorConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return common.ErrorInternal
	}
}

func (c *HTTPClient) jsonRequest(ctx context.Context, method, u string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodGet, c.baseURL+"/health", nil, nil)
}

func (c *HTTPClient) ListFolders(ctx context.Context, ws string) ([]string, error) {
	var out struct {
		Folders []string `json:"folders"`
	}
	if err := c.jsonRequest(ctx, http.MethodGet, c.wsURL(ws, "folders"), nil, &out); err != nil {
		return nil, err
	}
	return out.Folders, nil
}

func (c *HTTPClient) CreateFolder(ctx context.Context, ws, name string) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, c.wsURL(ws, "folders"), map[string]string{"name": name}, &out)
	return out.Name, err
}

func (c *HTTPClient) DeleteFolder(ctx context.Context, ws, name string) (*models.BatchResult, error) {
	var out models.BatchResult
	if err := c.jsonRequest(ctx, http.MethodDelete, c.wsURL(ws, "folders", name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListFiles(ctx context.Context, ws, folder string, recursive bool, query string) ([]models.FileItem, error) {
	q := url.Values{}
	if folder != "" {
		q.Set("folder", folder)
	}
	if recursive {
		q.Set("recursive", strconv.FormatBool(recursive))
	}
	if query != "" {
		q.Set("q", query)
	}
	u := c.wsURL(ws, "files")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var out struct {
		Files []models.FileItem `json:"files"`
	}
	if err := c.jsonRequest(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Upload streams body as the multipart "file" field. The content type is
// guessed from the file extension.
func (c *HTTPClient) Upload(ctx context.Context, ws, folder, fileName string, body io.Reader) (*models.FileItem, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, folder, fileName, body)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.wsURL(ws, "files"), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.FileItem
	if err := c.do(req, &out); err != nil {
		pr.Close()
		return nil, err
	}
	return &out, nil
}

func writeUploadForm(mw *multipart.Writer, folder, fileName string, body io.Reader) error {
	if folder != "" {
		if err := mw.WriteField("folder", folder); err != nil {
			return err
		}
	}

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = common.DefaultContentType
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": fileName}))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, body)
	return err
}

func (c *HTTPClient) DeleteFiles(ctx context.Context, ws string, paths []string) (*models.BatchResult, error) {
	var out models.BatchResult
	if err := c.jsonRequest(ctx, http.MethodDelete, c.wsURL(ws, "files"), map[string][]string{"paths": paths}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) MoveFile(ctx context.Context, ws, path, targetFolder string) (string, error) {
	var out struct {
		Path string `json:"path"`
	}
	body := map[string]string{"path": path, "targetFolder": targetFolder}
	err := c.jsonRequest(ctx, http.MethodPost, c.wsURL(ws, "files", "move"), body, &out)
	return out.Path, err
}

func (c *HTTPClient) SignedURL(ctx context.Context, ws, path string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	u := c.wsURL(ws, "files", "url") + "?" + url.Values{"path": {path}}.Encode()
	err := c.jsonRequest(ctx, http.MethodGet, u, nil, &out)
	return out.URL, err
}

func (c *HTTPClient) ListTrash(ctx context.Context, ws string) ([]models.TrashEntry, error) {
	var out struct {
		Entries []models.TrashEntry `json:"entries"`
	}
	if err := c.jsonRequest(ctx, http.MethodGet, c.wsURL(ws, "trash"), nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *HTTPClient) MoveToTrash(ctx context.Context, ws, path string) (*models.TrashEntry, error) {
	var out models.TrashEntry
	if err := c.jsonRequest(ctx, http.MethodPost, c.wsURL(ws, "trash"), map[string]string{"path": path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Restore(ctx context.Context, ws, id string) (*models.TrashEntry, error) {
	var out models.TrashEntry
	if err := c.jsonRequest(ctx, http.MethodPost, c.wsURL(ws, "trash", id, "restore"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Purge(ctx context.Context, ws, id string) error {
	return c.jsonRequest(ctx, http.MethodDelete, c.wsURL(ws, "trash", id), nil, nil)
}

// IsUnavailable reports whether err means the server could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
