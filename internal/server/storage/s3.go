package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/wsdrive/internal/common"
)

// DeleteObjects accepts at most this many keys per request.
const s3DeleteBatchSize = 1000

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Options configures an S3-compatible backend (AWS S3 or MinIO in S3 mode).
type S3Options struct {
	Region        string
	AccessKey     string
	SecretKey     string
	BaseEndpoint  string
	Bucket        string
	PublicBaseURL string
	// Concurrency bounds parallel HEAD requests during listings and removals.
	Concurrency int
}

// S3Store implements ObjectStore on top of aws-sdk-go-v2.
//
// ListObjectsV2 does not return user metadata, so every listed file costs
// one HEAD request; those run in parallel up to Concurrency.
type S3Store struct {
	client      s3API
	presign     presignAPI
	bucket      string
	publicBase  string
	concurrency int
}

func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return newS3Store(client, newS3PresignClient(client), opts), nil
}

func newS3Store(client s3API, presign presignAPI, opts S3Options) *S3Store {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	base := opts.PublicBaseURL
	if base == "" {
		base = opts.BaseEndpoint
	}
	return &S3Store{
		client:      client,
		presign:     presign,
		bucket:      opts.Bucket,
		publicBase:  base,
		concurrency: concurrency,
	}
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	p := listPrefix(prefix)

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Delimiter: aws.String("/"),
	}
	if p != "" {
		input.Prefix = aws.String(p)
	}

	var result []Object
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", p, mapS3Error(err))
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), p), "/")
			if name == "" {
				continue
			}
			result = append(result, Object{Path: p + name, Name: name, IsFolder: true})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			// directory placeholders created by other S3 tools
			if key == p || strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
	}

	files, err := s.statAll(ctx, keys)
	if err != nil {
		return nil, err
	}

	result = append(result, files...)
	sortByName(result)
	return result, nil
}

// statAll fetches metadata for keys in parallel. Keys removed between the
// listing and the HEAD are dropped.
func (s *S3Store) statAll(ctx context.Context, keys []string) ([]Object, error) {
	objects := make([]Object, len(keys))
	present := make([]bool, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			obj, err := s.Stat(gctx, key)
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			objects[i] = obj
			present[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Object, 0, len(keys))
	for i, ok := range present {
		if ok {
			out = append(out, objects[i])
		}
	}
	return out, nil
}

func (s *S3Store) Stat(ctx context.Context, path string) (Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return Object{}, fmt.Errorf("stat %s: %w", path, mapS3Error(err))
	}

	meta, found := DecodeMetadata(out.Metadata, path)
	updated := aws.ToTime(out.LastModified)
	created := updated
	if !meta.CreatedAt.IsZero() {
		created = meta.CreatedAt
	}

	return Object{
		Path:        path,
		Name:        BaseName(path),
		Metadata:    meta,
		HasMetadata: found,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, path string, body io.Reader, size int64, meta FileMetadata, overwrite bool) error {
	contentType := meta.MimeType
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    meta.Encode(),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if !overwrite {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put %s: %w", path, mapS3Error(err))
	}
	return nil
}

// Move is copy + delete: S3 has no rename. The destination check and the
// copy are separate calls, so a concurrent writer may still slip in between.
func (s *S3Store) Move(ctx context.Context, from, to string) error {
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

	if _, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(to),
		CopySource:        aws.String(copySource(s.bucket, from)),
		MetadataDirective: types.MetadataDirectiveCopy,
	}); err != nil {
		return fmt.Errorf("copy %s to %s: %w", from, to, mapS3Error(err))
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(from),
	}); err != nil {
		return fmt.Errorf("delete moved source %s: %w", from, mapS3Error(err))
	}
	return nil
}

// Remove verifies each path with HEAD (S3 deletes of absent keys succeed
// silently) and deletes the existing ones with DeleteObjects.
func (s *S3Store) Remove(ctx context.Context, paths []string) []RemoveResult {
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

	var batch []int
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.deleteBatch(ctx, batch, results)
		batch = batch[:0]
	}
	for i := range paths {
		if !exists[i] {
			continue
		}
		batch = append(batch, i)
		if len(batch) == s3DeleteBatchSize {
			flush()
		}
	}
	flush()

	return results
}

func (s *S3Store) deleteBatch(ctx context.Context, idx []int, results []RemoveResult) {
	ids := make([]types.ObjectIdentifier, 0, len(idx))
	byKey := make(map[string]int, len(idx))
	for _, i := range idx {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(results[i].Path)})
		byKey[results[i].Path] = i
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		for _, i := range idx {
			results[i].Err = fmt.Errorf("remove %s: %w", results[i].Path, mapS3Error(err))
		}
		return
	}

	for _, e := range out.Errors {
		key := aws.ToString(e.Key)
		i, ok := byKey[key]
		if !ok {
			continue
		}
		err := fmt.Errorf("remove %s: %s: %s", key, aws.ToString(e.Code), aws.ToString(e.Message))
		if aws.ToString(e.Code) == "NoSuchKey" {
			err = fmt.Errorf("remove %s: %w", key, common.ErrorNotFound)
		}
		results[i].Err = err
	}
}

func (s *S3Store) PublicURL(path string) string {
	return publicURL(s.publicBase, s.bucket, path)
}

func (s *S3Store) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if _, err := s.Stat(ctx, path); err != nil {
		return "", err
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	return req.URL, nil
}

func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// mapS3Error folds provider errors into the common sentinels, keeping the
// original text for the logs.
func mapS3Error(err error) error {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return fmt.Errorf("%w: %v", common.ErrorNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return fmt.Errorf("%w: %v", common.ErrorNotFound, err)
		case "PreconditionFailed", "ConditionalRequestConflict":
			return fmt.Errorf("%w: %v", common.ErrorConflict, err)
		}
	}
	return err
}
