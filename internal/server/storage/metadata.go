package storage

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/wsdrive/internal/common"
)

// MetadataVersion is written with every upload so that later readers can
// tell which keys to expect.
const MetadataVersion = 1

// Object metadata keys. S3-compatible stores lower-case user metadata keys
// and reject non-ASCII values, so the original name is stored escaped.
const (
	metaKeyVersion      = "meta-version"
	metaKeyOriginalName = "original-name"
	metaKeyMimeType     = "mimetype"
	metaKeySize         = "size"
	metaKeyCreatedAt    = "created-at"
)

const amzMetaPrefix = "x-amz-meta-"

// FileMetadata is the display metadata attached to a stored file.
type FileMetadata struct {
	Version      int
	OriginalName string
	MimeType     string
	SizeBytes    int64
	CreatedAt    time.Time
}

// Encode renders m as user metadata. Zero values are omitted.
func (m FileMetadata) Encode() map[string]string {
	out := map[string]string{metaKeyVersion: strconv.Itoa(MetadataVersion)}
	if m.OriginalName != "" {
		out[metaKeyOriginalName] = url.PathEscape(m.OriginalName)
	}
	if m.MimeType != "" {
		out[metaKeyMimeType] = m.MimeType
	}
	out[metaKeySize] = strconv.FormatInt(m.SizeBytes, 10)
	if !m.CreatedAt.IsZero() {
		out[metaKeyCreatedAt] = m.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}

// DecodeMetadata reads user metadata written by Encode. Keys are matched
// case-insensitively and may carry the x-amz-meta- prefix. It reports
// whether any known key was present; missing values fall back to the
// defaults for files written by other processes: the raw key as the name,
// application/octet-stream and size 0.
func DecodeMetadata(raw map[string]string, key string) (FileMetadata, bool) {
	norm := make(map[string]string, len(raw))
	for k, v := range raw {
		k = strings.ToLower(k)
		k = strings.TrimPrefix(k, amzMetaPrefix)
		norm[k] = v
	}

	m := FileMetadata{
		OriginalName: BaseName(key),
		MimeType:     common.DefaultContentType,
	}
	found := false

	if v, ok := norm[metaKeyVersion]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			m.Version = n
		}
		found = true
	}
	if v, ok := norm[metaKeyOriginalName]; ok && v != "" {
		if name, err := url.PathUnescape(v); err == nil {
			m.OriginalName = name
		} else {
			m.OriginalName = v
		}
		found = true
	}
	if v, ok := norm[metaKeyMimeType]; ok && v != "" {
		m.MimeType = v
		found = true
	}
	if v, ok := norm[metaKeySize]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			m.SizeBytes = n
		}
		found = true
	}
	if v, ok := norm[metaKeyCreatedAt]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			m.CreatedAt = ts
		}
	}

	return m, found
}
