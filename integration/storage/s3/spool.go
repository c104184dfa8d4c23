package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatch/core/storage"
)

// Compile-time check that Spool implements storage.Spool interface
var _ storage.Spool = (*Spool)(nil)

// S3Client defines the interface for S3 operations used by Spool.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
}

// Spool stores request bodies as S3 objects under a key prefix.
// Bodies are staged in a local temp file first so uploads have a known length.
type Spool struct {
	client        S3Client
	bucket        string
	prefix        string
	maxSize       int64
	tempDir       string
	uploadTimeout time.Duration // Optional timeout to prevent hanging uploads
}

// Option configures Spool.
type Option func(*options)

type options struct {
	httpClient      *http.Client
	s3Client        S3Client
	s3ConfigOptions []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3aws.Options)
	tempDir         string
}

// WithS3Client sets a custom pre-configured S3 client.
// Primarily used for testing with mocks, but also allows advanced client customization.
func WithS3Client(client S3Client) Option {
	return func(o *options) {
		o.s3Client = client
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithS3ConfigOption adds a custom AWS config option.
func WithS3ConfigOption(option func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.s3ConfigOptions = append(o.s3ConfigOptions, option)
	}
}

// WithS3ClientOption adds a custom S3 client option.
func WithS3ClientOption(option func(*s3aws.Options)) Option {
	return func(o *options) {
		o.s3ClientOptions = append(o.s3ClientOptions, option)
	}
}

// WithTempDir sets the directory used to stage bodies before upload.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// New creates an S3 body spool.
func New(ctx context.Context, cfg Config, opts ...Option) (*Spool, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}

		// Static credentials if provided, IAM roles/env vars otherwise
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}
		awsOptions = append(awsOptions, o.s3ConfigOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: load AWS config: %w", ErrInvalidConfig, err)
		}

		client = s3aws.NewFromConfig(awsConfig, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle

			for _, opt := range o.s3ClientOptions {
				opt(so)
			}
		})
	}

	prefix := strings.TrimPrefix(cfg.Prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Spool{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        prefix,
		maxSize:       cfg.MaxSize,
		tempDir:       o.tempDir,
		uploadTimeout: cfg.UploadTimeout,
	}, nil
}

// Put uploads r as a new object and returns its key as the location.
func (s *Spool) Put(ctx context.Context, r io.Reader, contentType string) (*storage.Object, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp(s.tempDir, "s3-body-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSpoolFailed, err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := storage.CopyLimited(tmp, r, s.maxSize)
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSpoolFailed, err)
	}

	key := s.prefix + uuid.NewString()
	input := &s3aws.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          tmp,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSpoolFailed, classifyS3Error(err, "upload body"))
	}

	return &storage.Object{
		Location:    key,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Open streams the object at location. The caller must close the reader.
func (s *Spool) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !s.owns(location) {
		return nil, storage.ErrInvalidLocation
	}

	out, err := s.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(location),
	})
	if err != nil {
		return nil, classifyS3Error(err, "download body")
	}
	return out.Body, nil
}

// Remove deletes the object at location. Deleting a missing object succeeds.
func (s *Spool) Remove(ctx context.Context, location string) error {
	if !s.owns(location) {
		return storage.ErrInvalidLocation
	}

	_, err := s.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(location),
	})
	return classifyS3Error(err, "delete body")
}

// owns reports whether location is a key this spool could have created.
func (s *Spool) owns(location string) bool {
	rest, ok := strings.CutPrefix(location, s.prefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}
