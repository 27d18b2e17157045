package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts         []*s3.PutObjectInput
	bodies       [][]byte
	putErr       error
	headErr      error
	createErr    error
	createCalled bool
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createCalled = true
	return &s3.CreateBucketOutput{}, f.createErr
}

func TestNewS3ExportArchiver_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3ExportArchiver(ctx, nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ExportArchiver(ctx, &config.StorageConfig{AccessKey: "k", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3ExportArchiver(ctx, &config.StorageConfig{Bucket: "b", AccessKey: "k"})
	assert.ErrorContains(t, err, "secret key are required")

	archiver, err := NewS3ExportArchiver(ctx, &config.StorageConfig{
		Bucket: "procurement", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000", UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "procurement", archiver.Bucket())
	assert.Equal(t, DefaultExportPrefix, archiver.prefix)
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "", normalizeEndpoint("", false))
	assert.Equal(t, "http://minio:9000", normalizeEndpoint("minio:9000", false))
	assert.Equal(t, "https://minio:9000", normalizeEndpoint("minio:9000", true))
	assert.Equal(t, "http://minio:9000", normalizeEndpoint("http://minio:9000", true))
}

func TestS3ExportArchiver_Archive(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads under prefix", func(t *testing.T) {
		client := &fakeS3{}
		archiver := newS3ExportArchiver(client, "procurement", "/exports/concur/")

		err := archiver.Archive(ctx, "PO-2026-00001_concur_export.csv", []byte("a,b\n"), "text/csv; charset=utf-8")

		require.NoError(t, err)
		require.Len(t, client.puts, 1)
		assert.Equal(t, "procurement", aws.ToString(client.puts[0].Bucket))
		assert.Equal(t, "exports/concur/PO-2026-00001_concur_export.csv", aws.ToString(client.puts[0].Key))
		assert.Equal(t, "text/csv; charset=utf-8", aws.ToString(client.puts[0].ContentType))
		assert.Equal(t, []byte("a,b\n"), client.bodies[0])
	})

	t.Run("strips directory parts", func(t *testing.T) {
		archiver := newS3ExportArchiver(&fakeS3{}, "b", "")

		key, err := archiver.KeyFor("../../etc/passwd")
		require.NoError(t, err)
		assert.Equal(t, "exports/concur/passwd", key)

		_, err = archiver.KeyFor("  ")
		assert.Error(t, err)
	})

	t.Run("wraps upload errors", func(t *testing.T) {
		archiver := newS3ExportArchiver(&fakeS3{putErr: errors.New("503")}, "b", "")

		err := archiver.Archive(ctx, "x.csv", nil, "text/csv")
		assert.ErrorContains(t, err, "failed to archive exports/concur/x.csv")
	})
}

func TestS3ExportArchiver_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket", func(t *testing.T) {
		client := &fakeS3{}
		require.NoError(t, newS3ExportArchiver(client, "b", "").EnsureBucket(ctx))
		assert.False(t, client.createCalled)
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		client := &fakeS3{headErr: &types.NotFound{}}
		require.NoError(t, newS3ExportArchiver(client, "b", "").EnsureBucket(ctx))
		assert.True(t, client.createCalled)
	})

	t.Run("race on create is tolerated", func(t *testing.T) {
		client := &fakeS3{headErr: &types.NoSuchBucket{}, createErr: &types.BucketAlreadyOwnedByYou{}}
		assert.NoError(t, newS3ExportArchiver(client, "b", "").EnsureBucket(ctx))
	})

	t.Run("other head errors", func(t *testing.T) {
		client := &fakeS3{headErr: errors.New("forbidden")}
		assert.ErrorContains(t, newS3ExportArchiver(client, "b", "").EnsureBucket(ctx), "failed to check bucket")
	})
}
