package netx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDownloadURL(t *testing.T) {
	t.Run("success 200 OK", func(t *testing.T) {
		var gotMethod, gotQuery string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte("hello, s3"))
		}))
		defer ts.Close()

		var buf bytes.Buffer
		n, err := DownloadURL(context.Background(), nil, ts.URL+"/ws1/a.txt?X-Amz-Signature=abc", &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodGet {
			t.Fatalf("method = %q, want GET", gotMethod)
		}
		if gotQuery != "X-Amz-Signature=abc" {
			t.Fatalf("query = %q", gotQuery)
		}
		if n != 9 || buf.String() != "hello, s3" {
			t.Fatalf("got %d bytes %q", n, buf.String())
		}
	})

	t.Run("non-200 returns error with body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("SignatureDoesNotMatch"))
		}))
		defer ts.Close()

		_, err := DownloadURL(context.Background(), ts.Client(), ts.URL, &bytes.Buffer{})
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "SignatureDoesNotMatch") {
			t.Fatalf("unexpected error text: %v", err)
		}
	})

	t.Run("bad url", func(t *testing.T) {
		if _, err := DownloadURL(context.Background(), nil, "://bad", &bytes.Buffer{}); err == nil {
			t.Fatal("expected error for malformed url")
		}
	})
}
