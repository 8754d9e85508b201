package storage

import (
	"context"
	"io"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the S3-compatible operations used to archive
// uploaded exports.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
	DownloadObject(ctx context.Context, key string, w io.Writer) error
	RemoveObject(ctx context.Context, key string) error
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// NoopStorage discards uploads. It is used when archiving is disabled.
type NoopStorage struct{}

func (NoopStorage) UploadObject(context.Context, string, []byte, string) error { return nil }

func (NoopStorage) DownloadObject(context.Context, string, io.Writer) error { return ErrNotFound }

func (NoopStorage) RemoveObject(context.Context, string) error { return nil }

func (NoopStorage) ListObjects(context.Context, string) ([]ObjectInfo, error) { return nil, nil }
