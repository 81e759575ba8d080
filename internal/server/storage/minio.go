package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/wsdrive/internal/common"
)

// MinioOptions configures the native MinIO backend.
type MinioOptions struct {
	// Endpoint accepts either "host:port" or a full URL; the scheme decides TLS.
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	Bucket        string
	PublicBaseURL string
	Concurrency   int
}

// MinioStore implements ObjectStore with minio-go. Unlike plain S3, MinIO
// can return user metadata inside listings, which saves one request per
// listed file.
type MinioStore struct {
	client      *minio.Client
	bucket      string
	publicBase  string
	concurrency int
}

func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	host, secure, err := splitEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	base := opts.PublicBaseURL
	if base == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		base = scheme + "://" + host
	}

	return &MinioStore{
		client:      client,
		bucket:      opts.Bucket,
		publicBase:  base,
		concurrency: concurrency,
	}, nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]Object, error) {
	p := listPrefix(prefix)

	var result []Object
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:       p,
		Recursive:    false,
		WithMetadata: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %q: %w", p, mapMinioError(info.Err))
		}
		if info.Key == p {
			continue
		}
		if strings.HasSuffix(info.Key, "/") {
			name := strings.TrimSuffix(strings.TrimPrefix(info.Key, p), "/")
			result = append(result, Object{Path: p + name, Name: name, IsFolder: true})
			continue
		}
		result = append(result, minioObject(info.Key, info))
	}

	sortByName(result)
	return result, nil
}

func (s *MinioStore) Stat(ctx context.Context, path string) (Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return Object{}, fmt.Errorf("stat %s: %w", path, mapMinioError(err))
	}
	return minioObject(path, info), nil
}

// Put with overwrite=false checks the destination first; the check and the
// upload are not atomic.
func (s *MinioStore) Put(ctx context.Context, path string, body io.Reader, size int64, meta FileMetadata, overwrite bool) error {
	if !overwrite {
		_, err := s.Stat(ctx, path)
		switch {
		case err == nil:
			return fmt.Errorf("put %s: %w", path, common.ErrorConflict)
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("put: %w", err)
		}
	}

	contentType := meta.MimeType
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	if _, err := s.client.PutObject(ctx, s.bucket, path, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta.Encode(),
	}); err != nil {
		return fmt.Errorf("put %s: %w", path, mapMinioError(err))
	}
	return nil
}

func (s *MinioStore) Move(ctx context.Context, from, to string) error {
	if _, err := s.Stat(ctx, from); err != nil {
		return fmt.Errorf("move: %w", err)
	}
	if from == to {
		return nil
	}

	_, err := s.Stat(ctx, to)
	switch {
	case err == nil:
		return fmt.Errorf("move to %s: %w", to, common.ErrorConflict)
	case !errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("move: %w", err)
	}

	if _, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: to},
		minio.CopySrcOptions{Bucket: s.bucket, Object: from},
	); err != nil {
		return fmt.Errorf("copy %s to %s: %w", from, to, mapMinioError(err))
	}

	if err := s.client.RemoveObject(ctx, s.bucket, from, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete moved source %s: %w", from, mapMinioError(err))
	}
	return nil
}

func (s *MinioStore) Remove(ctx context.Context, paths []string) []RemoveResult {
	results := make([]RemoveResult, len(paths))
	exists := make([]bool, len(paths))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, p := range paths {
		results[i].Path = p
		g.Go(func() error {
			if _, err := s.Stat(ctx, p); err != nil {
				results[i].Err = fmt.Errorf("remove: %w", err)
				return nil
			}
			exists[i] = true
			return nil
		})
	}
	_ = g.Wait()

	byKey := make(map[string]int, len(paths))
	objectsCh := make(chan minio.ObjectInfo, len(paths))
	for i, ok := range exists {
		if ok {
			byKey[paths[i]] = i
			objectsCh <- minio.ObjectInfo{Key: paths[i]}
		}
	}
	close(objectsCh)

	if len(byKey) == 0 {
		return results
	}

	for rErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if i, ok := byKey[rErr.ObjectName]; ok {
			results[i].Err = fmt.Errorf("remove %s: %w", rErr.ObjectName, mapMinioError(rErr.Err))
		}
	}
	return results
}

func (s *MinioStore) PublicURL(path string) string {
	return publicURL(s.publicBase, s.bucket, path)
}

func (s *MinioStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if _, err := s.Stat(ctx, path); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	return u.String(), nil
}

func minioObject(key string, info minio.ObjectInfo) Object {
	meta, found := DecodeMetadata(info.UserMetadata, key)
	created := info.LastModified
	if !meta.CreatedAt.IsZero() {
		created = meta.CreatedAt
	}
	return Object{
		Path:        key,
		Name:        BaseName(key),
		Metadata:    meta,
		HasMetadata: found,
		CreatedAt:   created,
		UpdatedAt:   info.LastModified,
	}
}

// splitEndpoint turns "http://host:9000/" into ("host:9000", false).
func splitEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), false, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func mapMinioError(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %v", common.ErrorNotFound, err)
	case "PreconditionFailed":
		return fmt.Errorf("%w: %v", common.ErrorConflict, err)
	}
	return err
}
