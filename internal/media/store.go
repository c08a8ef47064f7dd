// Package media stores listing photos in S3-compatible object storage.
// Objects are content addressed: the key ends in the SHA-256 of the photo,
// so re-uploading the same image is idempotent.
package media

import (
	"context"
	"errors"
)

var (
	// ErrDisabled is returned when photo uploads are not configured.
	ErrDisabled = errors.New("photo uploads are disabled")

	// ErrTooLarge is returned when a photo exceeds the configured limit.
	ErrTooLarge = errors.New("photo is too large")

	// ErrUnsupportedType is returned for content that is not a supported image.
	ErrUnsupportedType = errors.New("unsupported photo type")

	// ErrEmpty is returned for a zero-byte upload.
	ErrEmpty = errors.New("photo is empty")
)

// ObjectStore is the storage backend behind the Uploader.
// Implementations can include S3, MinIO or an in-memory map for tests.
type ObjectStore interface {
	// Put stores data under key with the given content type.
	// Storing the same key twice overwrites it.
	Put(ctx context.Context, key, contentType string, data []byte) error

	// URL returns the public URL of key.
	URL(key string) string
}
