package dto

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// FileResponse serialises a downloadable file.
type FileResponse struct {
	ID           uint      `json:"id"`
	FileName     string    `json:"file_name"`
	FilePath     string    `json:"file_path"`
	FileType     string    `json:"file_type"`
	FileSizeKB   int64     `json:"file_size_kb"`
	UploaderID   uint      `json:"uploader_id"`
	UploaderName string    `json:"uploader_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewFileResponse converts a file model.
func NewFileResponse(file models.DownloadableFile) FileResponse {
	return FileResponse{
		ID:         file.ID,
		FileName:   file.FileName,
		FilePath:   file.FilePath,
		FileType:   file.FileType,
		FileSizeKB: file.FileSizeKB,
		UploaderID: file.UploaderID,
		CreatedAt:  file.CreatedAt,
	}
}

// NewFileResponseWithUploader converts a listing row.
func NewFileResponseWithUploader(row repository.FileWithUploader) FileResponse {
	response := NewFileResponse(row.DownloadableFile)
	response.UploaderName = row.UploaderName
	return response
}
