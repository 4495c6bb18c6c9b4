package file

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aliskhannn/contentful-watermark/internal/contentful"
)

const stagingPrefix = "staging"

// objectClient is the subset of the MinIO client used by Storage.
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Storage stages watermarked files in an S3-compatible bucket and hands
// Contentful a presigned URL to import them from.
type Storage struct {
	client     objectClient
	bucketName string
	expiry     time.Duration
}

// NewStorage creates a new Storage instance connected to the specified MinIO server.
// If the bucket does not exist, it will be created automatically.
func NewStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, expiry time.Duration) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	return newStorage(ctx, client, bucketName, expiry)
}

func newStorage(ctx context.Context, client objectClient, bucketName string, expiry time.Duration) (*Storage, error) {
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	if expiry <= 0 {
		expiry = time.Hour
	}

	return &Storage{
		client:     client,
		bucketName: bucketName,
		expiry:     expiry,
	}, nil
}

// Stage uploads the file under a unique object name and returns a
// presigned URL Contentful can download it from while processing.
func (s *Storage) Stage(ctx context.Context, fileName, contentType string, src io.Reader, size int64) (contentful.Source, error) {
	objectName := path.Join(stagingPrefix, uuid.NewString(), fileName)

	_, err := s.client.PutObject(ctx, s.bucketName, objectName, src, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return contentful.Source{}, fmt.Errorf("failed to save file: %w", err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, s.expiry, url.Values{})
	if err != nil {
		return contentful.Source{}, fmt.Errorf("failed to presign %s: %w", objectName, err)
	}

	return contentful.Source{
		URL: u.String(),
		Cleanup: func(ctx context.Context) error {
			return s.Delete(ctx, objectName)
		},
	}, nil
}

// Delete removes a staged object from the bucket.
func (s *Storage) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectName, err)
	}
	return nil
}
