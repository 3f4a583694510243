// Package storage moves files between the local disk and S3-compatible
// object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/archiveloader/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options configures the S3 client.
type Options struct {
	Region       string
	User         string
	Password     string
	BaseEndpoint string
	// Timeout bounds a single transfer; zero means no limit.
	Timeout time.Duration
}

// Store uploads and downloads objects. Keys are stored without a leading
// slash.
type Store struct {
	api     objectAPI
	timeout time.Duration
	logger  logging.Logger
}

// New builds a Store backed by static credentials and a custom endpoint.
func New(ctx context.Context, opts Options, logger logging.Logger) (*Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.User, opts.Password, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newStore(client, opts.Timeout, logger), nil
}

func newStore(api objectAPI, timeout time.Duration, logger logging.Logger) *Store {
	return &Store{api: api, timeout: timeout, logger: logger}
}

func (s *Store) transferContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func objectKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

// Upload puts the local file at bucket/key.
func (s *Store) Upload(ctx context.Context, localPath, bucket, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	ctx, cancel := s.transferContext(ctx)
	defer cancel()

	start := time.Now()
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectKey(key)),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, objectKey(key), err)
	}

	s.logger.Debug(ctx, "uploaded object", "bucket", bucket, "key", objectKey(key),
		"bytes", info.Size(), "elapsed", time.Since(start))
	return nil
}

// PutBytes stores body at bucket/key with the given content type and
// object metadata.
func (s *Store) PutBytes(ctx context.Context, bucket, key string, body []byte, contentType string, meta map[string]string) error {
	ctx, cancel := s.transferContext(ctx)
	defer cancel()

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectKey(key)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		Metadata:      meta,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, objectKey(key), err)
	}
	return nil
}

// Download writes bucket/key to localPath, creating parent directories. A
// partially written file is removed on failure.
func (s *Store) Download(ctx context.Context, bucket, key, localPath string) (err error) {
	ctx, cancel := s.transferContext(ctx)
	defer cancel()

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", bucket, objectKey(key), err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", localPath, err)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", localPath, cerr)
		}
		if err != nil {
			_ = os.Remove(localPath)
		}
	}()

	n, err := io.Copy(f, out.Body)
	if err != nil {
		return fmt.Errorf("read s3://%s/%s: %w", bucket, objectKey(key), err)
	}

	s.logger.Debug(ctx, "downloaded object", "bucket", bucket, "key", objectKey(key), "bytes", n)
	return nil
}
