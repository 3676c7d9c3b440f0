package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStore is the object-store contract the services depend on. The
// namespace never stores bytes itself; it only allocates keys, signs
// time-limited URLs against them, and deletes or streams objects by key.
type ObjectStore interface {
	PresignedPutURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration, contentType, contentDisposition string) (string, error)
	Open(ctx context.Context, objectName string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, objectName string) error
	EnsureBucket(ctx context.Context) error
	SetupCORS(ctx context.Context) error
}
