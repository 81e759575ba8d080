package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileMetadata_EncodeDecode(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := FileMetadata{
		OriginalName: "My Report (Final)!.pdf",
		MimeType:     "application/pdf",
		SizeBytes:    2048,
		CreatedAt:    created,
	}

	raw := in.Encode()
	assert.Equal(t, "1", raw["meta-version"])
	assert.NotContains(t, raw["original-name"], " ", "original name must be ASCII-safe")

	out, found := DecodeMetadata(raw, "ws/My_Report__Final__.pdf")
	require.True(t, found)
	assert.Equal(t, MetadataVersion, out.Version)
	assert.Equal(t, "My Report (Final)!.pdf", out.OriginalName)
	assert.Equal(t, "application/pdf", out.MimeType)
	assert.Equal(t, int64(2048), out.SizeBytes)
	assert.True(t, created.Equal(out.CreatedAt))
}

func TestDecodeMetadata_Defaults(t *testing.T) {
	out, found := DecodeMetadata(nil, "ws/folder/raw_key.bin")

	assert.False(t, found)
	assert.Equal(t, "raw_key.bin", out.OriginalName)
	assert.Equal(t, "application/octet-stream", out.MimeType)
	assert.Zero(t, out.SizeBytes)
	assert.True(t, out.CreatedAt.IsZero())
}

func TestDecodeMetadata_HeaderStyleKeys(t *testing.T) {
	raw := map[string]string{
		"X-Amz-Meta-Original-Name": "r%C3%A9sum%C3%A9.docx",
		"X-Amz-Meta-Mimetype":      "application/msword",
		"X-Amz-Meta-Size":          "77",
	}

	out, found := DecodeMetadata(raw, "ws/r_sum_.docx")
	require.True(t, found)
	assert.Equal(t, "résumé.docx", out.OriginalName)
	assert.Equal(t, "application/msword", out.MimeType)
	assert.Equal(t, int64(77), out.SizeBytes)
}

func TestDecodeMetadata_GarbageValues(t *testing.T) {
	raw := map[string]string{"size": "-5", "meta-version": "x", "created-at": "yesterday"}

	out, found := DecodeMetadata(raw, "ws/a.txt")
	assert.True(t, found)
	assert.Zero(t, out.SizeBytes)
	assert.Zero(t, out.Version)
	assert.True(t, out.CreatedAt.IsZero())
}

func TestJoinPathAndBaseName(t *testing.T) {
	assert.Equal(t, "ws/Reports/a.txt", JoinPath("ws", "/Reports/", "", "a.txt"))
	assert.Equal(t, "ws", JoinPath("ws", ""))
	assert.Equal(t, "a.txt", BaseName("ws/Reports/a.txt"))
	assert.Equal(t, "Reports", BaseName("ws/Reports/"))
	assert.Equal(t, "plain", BaseName("plain"))
}

func TestPublicURL_EscapesSegments(t *testing.T) {
	got := publicURL("http://127.0.0.1:9000/", "workspace-files", "ws/My Folder/a b.txt")
	assert.Equal(t, "http://127.0.0.1:9000/workspace-files/ws/My%20Folder/a%20b.txt", got)
}
