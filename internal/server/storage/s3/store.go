// Package s3 is the object-store storage backend. Directories are emulated
// with "/"-delimited key prefixes.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/intelligence/internal/logging"
	"github.com/dmitrijs2005/intelligence/internal/server/storage"
)

// Client is the subset of *s3.Client the store calls.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config holds configuration for the S3 backend.
type Config struct {
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the base URL for S3-compatible services such as MinIO.
	Endpoint string

	// AccessKey and SecretKey select static credentials. When empty the
	// SDK default credential chain is used.
	AccessKey string
	SecretKey string

	// KeyPrefix is prepended to every key. A trailing "/" is added if missing.
	KeyPrefix string

	// UsePathStyle forces path-style addressing (MinIO, Localstack).
	UsePathStyle bool
}

type Store struct {
	client Client
	bucket string
	prefix string
	logger logging.Logger
}

func New(client Client, cfg Config, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	prefix := strings.Trim(cfg.KeyPrefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		logger: logger.With("module", "storage.s3", "bucket", cfg.Bucket),
	}
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewFromConfig builds the SDK client from cfg and wraps it in a Store.
func NewFromConfig(ctx context.Context, cfg Config, logger logging.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return New(client, cfg, logger), nil
}

func (s *Store) key(p string) string {
	return s.prefix + strings.TrimPrefix(path.Clean("/"+p), "/")
}

// dirPrefix is the listing prefix for p, always ending in "/" unless it is
// the bucket root.
func (s *Store) dirPrefix(p string) string {
	k := s.key(p)
	if k == "" || strings.HasSuffix(k, "/") {
		return k
	}
	return k + "/"
}

func (s *Store) Get(ctx context.Context, p string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return nil, classify(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read object body: %w", storage.ErrIO, err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, p string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(p)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// Delete checks existence first since DeleteObject succeeds on missing keys.
func (s *Store) Delete(ctx context.Context, p string) error {
	if _, err := s.head(ctx, p); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) head(ctx context.Context, p string) (*s3.HeadObjectOutput, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Size returns the object length when p names an object, otherwise the sum
// of every object under p. A prefix with no objects measures 0; there is no
// directory to create.
func (s *Store) Size(ctx context.Context, p string) (uint64, error) {
	if p != "" {
		out, err := s.head(ctx, p)
		if err == nil {
			return uint64(aws.ToInt64(out.ContentLength)), nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return 0, err
		}
	}

	var total uint64
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.dirPrefix(p)),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return 0, classify(err)
		}
		for _, obj := range page.Contents {
			total += uint64(aws.ToInt64(obj.Size))
		}
	}
	return total, nil
}

// List returns the first path segment of every key and common prefix
// directly under p. An empty listing is ErrNotFound.
func (s *Store) List(ctx context.Context, p string) ([]string, error) {
	prefix := s.dirPrefix(p)
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var names []string
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, cp := range page.CommonPrefixes {
			if name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/"); name != "" {
				names = append(names, name)
			}
		}
		for _, obj := range page.Contents {
			if name := strings.TrimPrefix(aws.ToString(obj.Key), prefix); name != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no objects under %q", storage.ErrNotFound, p)
	}
	return names, nil
}

func classify(err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %w", storage.ErrPermissionDenied, err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", storage.ErrIO, err)
}

var _ storage.Backend = (*Store)(nil)
