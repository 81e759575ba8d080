// Package storage is the object store adapter: a path-addressed blob store
// with one-level listing, batch removal, rename and URL derivation. The
// store has no native directories; a sub-prefix with no content of its own
// is reported as a folder entry.
package storage

import (
	"context"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/wsdrive/internal/common"
)

// Object is one entry returned by the store. For folder entries Path is the
// prefix without a trailing slash and Metadata is empty.
type Object struct {
	Path        string
	Name        string
	IsFolder    bool
	Metadata    FileMetadata
	HasMetadata bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsMarker reports whether the object is a folder placeholder.
func (o Object) IsMarker() bool {
	return !o.IsFolder && o.Name == common.MarkerFileName
}

// RemoveResult is the outcome for one path of a batch removal. Err is nil on
// success and wraps common.ErrorNotFound when the path did not exist.
type RemoveResult struct {
	Path string
	Err  error
}

// ObjectStore is the contract consumed by the folder, file and trash services.
//
// Only single-path mutations are atomic. Remove is not atomic across paths
// and never rolls back the successes it already applied.
type ObjectStore interface {
	// List returns the direct children of prefix, ascending by name.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Stat returns one object with its metadata or common.ErrorNotFound.
	Stat(ctx context.Context, path string) (Object, error)
	// Put stores body at path. With overwrite=false an occupied path yields
	// common.ErrorConflict.
	Put(ctx context.Context, path string, body io.Reader, size int64, meta FileMetadata, overwrite bool) error
	// Move renames from to to. A missing source yields common.ErrorNotFound,
	// an occupied destination common.ErrorConflict.
	Move(ctx context.Context, from, to string) error
	Remove(ctx context.Context, paths []string) []RemoveResult
	// PublicURL derives the public locator for path without any I/O.
	PublicURL(path string) string
	// SignedURL returns a time-limited download URL.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// JoinPath joins non-empty segments with "/", trimming stray separators.
func JoinPath(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// BaseName returns the last path segment.
func BaseName(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// publicURL builds base/bucket/escaped-path.
func publicURL(base, bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + JoinPath(bucket, strings.Join(segments, "/"))
}

func listPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func sortByName(objects []Object) {
	sort.SliceStable(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
}
