// Package storage archives generated files to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	infraconfig "github.com/erp/procurement/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DefaultExportPrefix is the key prefix for archived Concur exports
const DefaultExportPrefix = "exports/concur"

// s3API is the subset of *s3.Client the archiver uses
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3ExportArchiver stores export files in a bucket under a fixed prefix.
// It works with AWS S3 and S3-compatible servers such as MinIO.
type S3ExportArchiver struct {
	client s3API
	bucket string
	prefix string
	logger *zap.Logger
}

// S3ExportArchiverOption configures an S3ExportArchiver
type S3ExportArchiverOption func(*S3ExportArchiver)

// WithLogger sets the archiver's logger
func WithLogger(logger *zap.Logger) S3ExportArchiverOption {
	return func(a *S3ExportArchiver) {
		a.logger = logger
	}
}

// NewS3ExportArchiver builds an archiver from the [storage] config section
func NewS3ExportArchiver(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3ExportArchiverOption) (*S3ExportArchiver, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage access key and secret key are required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3ExportArchiver(client, cfg.Bucket, cfg.ExportPrefix, opts...), nil
}

func newS3ExportArchiver(client s3API, bucket, prefix string, opts ...S3ExportArchiverOption) *S3ExportArchiver {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultExportPrefix
	}
	a := &S3ExportArchiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// normalizeEndpoint adds a scheme to a bare host:port. Empty means the AWS default.
func normalizeEndpoint(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// EnsureBucket creates the bucket if it does not exist
func (a *S3ExportArchiver) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating export bucket", zap.String("bucket", a.bucket))
	if _, err := a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive uploads content as <prefix>/<filename>
func (a *S3ExportArchiver) Archive(ctx context.Context, filename string, content []byte, contentType string) error {
	key, err := a.KeyFor(filename)
	if err != nil {
		return err
	}

	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	}); err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}

	a.logger.Debug("Export archived",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(content)))
	return nil
}

// KeyFor returns the object key for filename. Directory parts are stripped.
func (a *S3ExportArchiver) KeyFor(filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", errors.New("export filename is required")
	}
	return a.prefix + "/" + name, nil
}

// Bucket returns the bucket name
func (a *S3ExportArchiver) Bucket() string {
	return a.bucket
}
