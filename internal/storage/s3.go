package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/andresuchdata/revsplit/internal/config"
)

var ErrNotFound = errors.New("object not found")

// S3Client implements ObjectStorage for S3-compatible services.
type S3Client struct {
	client *minio.Client
	bucket string
}

// New returns the configured ObjectStorage: an S3 client when storage is
// enabled, a NoopStorage otherwise.
func New(cfg config.StorageConfig) (ObjectStorage, error) {
	if !cfg.Enabled {
		return NoopStorage{}, nil
	}
	return NewS3Client(cfg)
}

// NewS3Client builds a client for the configured bucket.
func NewS3Client(cfg config.StorageConfig) (*S3Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket must be provided")
	}

	endpoint, secure := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &S3Client{client: client, bucket: cfg.Bucket}, nil
}

// normalizeEndpoint strips any scheme from endpoint; an explicit scheme
// overrides useSSL.
func normalizeEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "//"), "/"), useSSL
	}
}

// UploadObject stores data under key.
func (c *S3Client) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage upload %s failed: %w", key, err)
	}
	return nil
}

// DownloadObject copies the object at key into w.
func (c *S3Client) DownloadObject(ctx context.Context, key string, w io.Writer) error {
	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("storage download %s failed: %w", key, err)
	}
	defer obj.Close()

	if _, err := io.Copy(w, obj); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("storage download %s failed: %w", key, err)
	}
	return nil
}

// RemoveObject deletes the object at key.
func (c *S3Client) RemoveObject(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage remove %s failed: %w", key, err)
	}
	return nil
}

// ListObjects lists all objects for a given prefix.
func (c *S3Client) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	results := make([]ObjectInfo, 0)
	for object := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("storage list failed: %w", object.Err)
		}
		results = append(results, ObjectInfo{Key: object.Key, Size: object.Size})
	}
	return results, nil
}

var _ ObjectStorage = (*S3Client)(nil)
