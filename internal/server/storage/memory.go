package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/wsdrive/internal/common"
)

type memObject struct {
	data      []byte
	meta      map[string]string
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore is an in-process ObjectStore used for local runs and tests.
// Every method holds the lock for its whole duration, so each call is atomic.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memObject
	baseURL string
	bucket  string
	now     func() time.Time
}

func NewMemoryStore(baseURL, bucket string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*memObject),
		baseURL: baseURL,
		bucket:  bucket,
		now:     time.Now,
	}
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]Object, error) {
	p := listPrefix(prefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	folders := make(map[string]struct{})
	var result []Object
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, p) {
			continue
		}
		rest := key[len(p):]
		if i := strings.Index(rest, "/"); i >= 0 {
			folders[rest[:i]] = struct{}{}
			continue
		}
		result = append(result, s.toObject(key, obj))
	}
	for name := range folders {
		result = append(result, Object{Path: p + name, Name: name, IsFolder: true})
	}

	sortByName(result)
	return result, nil
}

func (s *MemoryStore) Stat(_ context.Context, path string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[path]
	if !ok {
		return Object{}, fmt.Errorf("stat %s: %w", path, common.ErrorNotFound)
	}
	return s.toObject(path, obj), nil
}

func (s *MemoryStore) Put(_ context.Context, path string, body io.Reader, _ int64, meta FileMetadata, overwrite bool) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.objects[path]; ok {
		if !overwrite {
			return fmt.Errorf("put %s: %w", path, common.ErrorConflict)
		}
		existing.data = data
		existing.meta = meta.Encode()
		existing.updatedAt = now
		return nil
	}

	s.objects[path] = &memObject{data: data, meta: meta.Encode(), createdAt: now, updatedAt: now}
	return nil
}

func (s *MemoryStore) Move(_ context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[from]
	if !ok {
		return fmt.Errorf("move %s: %w", from, common.ErrorNotFound)
	}
	if from == to {
		return nil
	}
	if _, taken := s.objects[to]; taken {
		return fmt.Errorf("move to %s: %w", to, common.ErrorConflict)
	}

	delete(s.objects, from)
	obj.updatedAt = s.now()
	s.objects[to] = obj
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, paths []string) []RemoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]RemoveResult, 0, len(paths))
	for _, p := range paths {
		if _, ok := s.objects[p]; !ok {
			results = append(results, RemoveResult{Path: p, Err: fmt.Errorf("remove %s: %w", p, common.ErrorNotFound)})
			continue
		}
		delete(s.objects, p)
		results = append(results, RemoveResult{Path: p})
	}
	return results
}

func (s *MemoryStore) PublicURL(path string) string {
	return publicURL(s.baseURL, s.bucket, path)
}

func (s *MemoryStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if _, err := s.Stat(ctx, path); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("expires", s.now().Add(ttl).UTC().Format(time.RFC3339))
	return s.PublicURL(path) + "?" + q.Encode(), nil
}

// Content returns a copy of the bytes stored at path.
func (s *MemoryStore) Content(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[path]
	if !ok {
		return nil, false
	}
	return bytes.Clone(obj.data), true
}

// Keys returns every stored path; order is unspecified.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

// PutRaw stores data with arbitrary user metadata, bypassing FileMetadata.
// It stands in for objects written by other processes.
func (s *MemoryStore) PutRaw(path string, data []byte, meta map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.objects[path] = &memObject{data: bytes.Clone(data), meta: meta, createdAt: now, updatedAt: now}
}

func (s *MemoryStore) toObject(key string, obj *memObject) Object {
	meta, found := DecodeMetadata(obj.meta, key)
	created := obj.createdAt
	if !meta.CreatedAt.IsZero() {
		created = meta.CreatedAt
	}
	return Object{
		Path:        key,
		Name:        BaseName(key),
		Metadata:    meta,
		HasMetadata: found,
		CreatedAt:   created,
		UpdatedAt:   obj.updatedAt,
	}
}
