package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wsdrive/internal/common"
)

func TestHTTPClient_SendsTokenAndDecodes(t *testing.T) {
	var gotAuth, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(common.AuthorizationHeaderName)
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"folders":["A","B"]}`))
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL+"/", time.Second)
	c.SetToken("tok")

	folders, err := c.ListFolders(context.Background(), "ws 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, folders)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/api/v1/workspaces/ws%201/folders", gotPath)
}

func TestHTTPClient_MapsStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, common.ErrorValidation},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, common.ErrorForbidden},
		{http.StatusNotFound, common.ErrorNotFound},
		{http.StatusConflict, common.ErrorConflict},
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusInternalServerError, common.ErrorInternal},
	}
	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "server says no"})
		}))

		err := NewHTTPClient(ts.URL, time.Second).Purge(context.Background(), "ws1", "t1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, tt.want), "status %d: %v", tt.status, err)
		assert.Contains(t, err.Error(), "server says no")
		ts.Close()
	}
}

func TestHTTPClient_OrphanReportsTrashPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":     "file moved to trash but not recorded",
			"code":      "orphaned_trash_object",
			"trashPath": "trash/ws1/1740830400000_a.txt",
		})
	}))
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, time.Second).MoveToTrash(context.Background(), "ws1", "ws1/a.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorInternal))
	assert.Contains(t, err.Error(), "trash/ws1/1740830400000_a.txt")
}

func TestHTTPClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	err := NewHTTPClient(url, time.Second).Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestHTTPClient_ListFilesQuery(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"files":[{"path":"ws1/F/a.txt","name":"a.txt","size":3}]}`))
	}))
	defer ts.Close()

	files, err := NewHTTPClient(ts.URL, time.Second).ListFiles(context.Background(), "ws1", "F", true, "a")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(3), files[0].Size)
	assert.Equal(t, "folder=F&q=a&recursive=true", gotQuery)
}

func TestHTTPClient_UploadMultipart(t *testing.T) {
	var folder, name, ctype, content string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		folder = r.FormValue("folder")
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		name, ctype, content = fh.Filename, fh.Header.Get("Content-Type"), string(b)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"path":"ws1/Docs/report.pdf"}`))
	}))
	defer ts.Close()

	item, err := NewHTTPClient(ts.URL, time.Second).Upload(context.Background(), "ws1", "Docs", "report.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "ws1/Docs/report.pdf", item.Path)
	assert.Equal(t, "Docs", folder)
	assert.Equal(t, "report.pdf", name)
	assert.Equal(t, "application/pdf", ctype)
	assert.Equal(t, "%PDF", content)
}

func TestHTTPClient_DeleteFilesBody(t *testing.T) {
	var body map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"deleted":["ws1/a"],"failed":[{"path":"ws1/b","error":"not found","notFound":true}]}`))
	}))
	defer ts.Close()

	res, err := NewHTTPClient(ts.URL, time.Second).DeleteFiles(context.Background(), "ws1", []string{"ws1/a", "ws1/b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ws1/a", "ws1/b"}, body["paths"])
	assert.Equal(t, []string{"ws1/a"}, res.Deleted)
	require.Len(t, res.Failed, 1)
	assert.True(t, res.Failed[0].NotFound)
}
