package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/observability"
)

// imageUploads lists the picture formats accepted for profile pictures and
// event covers.
var imageUploads = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
}

// ImageUploader stores pictures attached to profiles and events through the
// same FileStorage as downloadable files.
type ImageUploader struct {
	storage FileStorage
	maxSize int64
	logger  zerolog.Logger
	now     func() time.Time
}

// NewImageUploader constructs the uploader. A nil storage rejects every
// picture with ErrStorageUnavailable.
func NewImageUploader(storage FileStorage, maxSizeMB int, logger zerolog.Logger) *ImageUploader {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &ImageUploader{
		storage: storage,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		logger:  logger.With().Str("component", "image_uploader").Logger(),
		now:     time.Now,
	}
}

// Store validates file as an image and returns its stored location. kind
// prefixes the stored name.
func (u *ImageUploader) Store(ctx context.Context, kind string, file *multipart.FileHeader) (string, error) {
	if u == nil || u.storage == nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		return "", ErrStorageUnavailable
	}
	if file == nil {
		return "", newValidationError(kind, "no file uploaded")
	}

	if file.Size > u.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return "", ErrUploadTooLarge
	}

	content, err := readUpload(file, u.maxSize)
	if errors.Is(err, ErrUploadTooLarge) {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", kind, err)
	}

	if _, ok := matchUpload(file.Filename, mimetype.Detect(content), imageUploads); !ok {
		observability.UploadRejected().WithLabelValues("type").Inc()
		return "", ErrUploadTypeNotAllowed
	}

	name := fmt.Sprintf("%s-%d-%s", kind, u.now().UnixMilli(), sanitizeFileName(file.Filename))
	location, err := u.storage.Upload(ctx, name, bytes.NewReader(content))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		return "", fmt.Errorf("store %s: %w", kind, err)
	}
	return location, nil
}

// Discard removes a previously stored picture. Failures are only logged.
func (u *ImageUploader) Discard(ctx context.Context, location string) {
	if u == nil || u.storage == nil || location == "" {
		return
	}
	if err := u.storage.Remove(ctx, location); err != nil {
		u.logger.Warn().Err(err).Str("location", location).Msg("failed to remove stored image")
	}
}
