package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/observability"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
	Remove(ctx context.Context, location string) error
}

// allowedUploads maps an extension to the MIME types its content may sniff as.
var allowedUploads = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".xls":  {"application/vnd.ms-excel", "application/x-ole-storage"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	".ppt":  {"application/vnd.ms-powerpoint", "application/x-ole-storage"},
	".pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation", "application/zip"},
}

// FileService manages downloadable documents.
type FileService interface {
	List(ctx context.Context) ([]dto.FileResponse, error)
	Upload(ctx context.Context, actor auth.Identity, file *multipart.FileHeader) (dto.FileResponse, error)
	Delete(ctx context.Context, actor auth.Identity, id uint) error
}

type fileService struct {
	storage  FileStorage
	repo     repository.FileRepository
	activity ActivityRecorder
	logger   zerolog.Logger
	maxSize  int64
	tracer   trace.Tracer
	now      func() time.Time
}

// NewFileService constructs the file service. A nil storage rejects uploads
// with ErrStorageUnavailable.
func NewFileService(storage FileStorage, repo repository.FileRepository, activity ActivityRecorder, maxSizeMB int, logger zerolog.Logger) FileService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &fileService{
		storage:  storage,
		repo:     repo,
		activity: activity,
		logger:   logger.With().Str("component", "file_service").Logger(),
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		tracer:   otel.Tracer("github.com/noah-isme/campus-portal-api/internal/service/file"),
		now:      time.Now,
	}
}

func (s *fileService) List(ctx context.Context) ([]dto.FileResponse, error) {
	rows, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	files := make([]dto.FileResponse, 0, len(rows))
	for _, row := range rows {
		files = append(files, dto.NewFileResponseWithUploader(row))
	}
	return files, nil
}

func (s *fileService) Upload(ctx context.Context, actor auth.Identity, file *multipart.FileHeader) (dto.FileResponse, error) {
	ctx, span := s.tracer.Start(ctx, "file.upload")
	defer span.End()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		err := newValidationError("file", "no file uploaded")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.FileResponse{}, err
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if s.storage == nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.SetStatus(codes.Error, "storage unavailable")
		return dto.FileResponse{}, ErrStorageUnavailable
	}

	if file.Size > s.maxSize {
		return dto.FileResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	content, err := readUpload(file, s.maxSize)
	if errors.Is(err, ErrUploadTooLarge) {
		return dto.FileResponse{}, s.reject(span, "size", err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.FileResponse{}, err
	}

	detected := mimetype.Detect(content)
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	fileType, ok := matchUpload(file.Filename, detected, allowedUploads)
	if !ok {
		return dto.FileResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	storedName := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeFileName(file.Filename))
	location, err := s.storage.Upload(ctx, storedName, bytes.NewReader(content))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.FileResponse{}, fmt.Errorf("store upload: %w", err)
	}

	record := models.DownloadableFile{
		FileName:   strings.TrimSpace(filepath.Base(file.Filename)),
		FilePath:   location,
		FileType:   fileType,
		FileSizeKB: (int64(len(content)) + 512) / 1024,
		UploaderID: actor.UserID,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		if removeErr := s.storage.Remove(ctx, location); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("location", location).Msg("failed to remove orphaned upload")
		}
		return dto.FileResponse{}, fmt.Errorf("create file record: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionFileUploaded,
		EntityType: "file",
		EntityID:   uintPtr(record.ID),
		Metadata:   map[string]interface{}{"file_name": record.FileName, "file_type": record.FileType},
	})

	span.SetStatus(codes.Ok, "stored")
	return dto.NewFileResponse(record), nil
}

func (s *fileService) Delete(ctx context.Context, actor auth.Identity, id uint) error {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("delete file record: %w", err)
	}

	if s.storage != nil {
		if err := s.storage.Remove(ctx, file.FilePath); err != nil {
			s.logger.Warn().Err(err).Uint("file_id", id).Msg("failed to remove stored file")
		}
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionFileDeleted,
		EntityType: "file",
		EntityID:   uintPtr(id),
		Metadata:   map[string]interface{}{"file_name": file.FileName},
	})
	return nil
}

func (s *fileService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

// readUpload loads the whole part into memory, refusing anything larger
// than maxSize whatever the declared size says.
func readUpload(file *multipart.FileHeader, maxSize int64) ([]byte, error) {
	handle, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, maxSize+1)); err != nil {
		return nil, err
	}
	if int64(buf.Len()) > maxSize {
		return nil, ErrUploadTooLarge
	}
	return buf.Bytes(), nil
}

// matchUpload requires both the extension and the sniffed content to be in
// allowed. The reported type is the sniffed one.
func matchUpload(name string, detected *mimetype.MIME, allowed map[string][]string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	candidates, ok := allowed[ext]
	if !ok {
		return "", false
	}

	for mime := detected; mime != nil; mime = mime.Parent() {
		for _, candidate := range candidates {
			if mime.Is(candidate) {
				return detected.String(), true
			}
		}
	}
	return "", false
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}
	return base + strings.ToLower(filepath.Ext(name))
}
