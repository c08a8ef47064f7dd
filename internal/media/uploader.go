package media

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/pkg/crypto"
)

// DefaultMaxUploadSize is used when no limit is configured.
const DefaultMaxUploadSize = 5 << 20

// Uploader validates photos and writes them to an ObjectStore.
// A nil *Uploader means uploads are disabled.
type Uploader struct {
	store   ObjectStore
	maxSize int64
	logger  zerolog.Logger
}

// NewUploader creates an Uploader. maxSize <= 0 selects DefaultMaxUploadSize.
func NewUploader(store ObjectStore, maxSize int64, logger zerolog.Logger) *Uploader {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &Uploader{
		store:   store,
		maxSize: maxSize,
		logger:  logger.With().Str("component", "media").Logger(),
	}
}

// MaxSize returns the upload limit in bytes.
func (u *Uploader) MaxSize() int64 {
	if u == nil {
		return 0
	}
	return u.maxSize
}

// Upload stores the photo of a listing and returns its public URL.
// The content type is sniffed from the data, not taken from the client.
func (u *Uploader) Upload(ctx context.Context, category domain.Category, listingID string, r io.Reader) (string, error) {
	if u == nil {
		return "", ErrDisabled
	}

	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > u.maxSize {
		return "", ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := Extension(contentType)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := ComputeKey(category.Slug(), listingID, crypto.ComputeSHA256(data), ext)
	if err := u.store.Put(ctx, key, contentType, data); err != nil {
		u.logger.Error().Err(err).Str("key", key).Msg("failed to store photo")
		return "", err
	}

	u.logger.Info().
		Str("listing_id", listingID).
		Str("key", key).
		Int("size", len(data)).
		Msg("photo uploaded")

	return u.store.URL(key), nil
}
