package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// FileWithUploader is a downloadable file joined with the uploader's name.
type FileWithUploader struct {
	models.DownloadableFile
	UploaderName string `json:"uploader_name"`
}

// FileRepository persists downloadable file metadata.
type FileRepository interface {
	List(ctx context.Context, limit int) ([]FileWithUploader, error)
	GetByID(ctx context.Context, id uint) (models.DownloadableFile, error)
	Create(ctx context.Context, file *models.DownloadableFile) error
	Delete(ctx context.Context, id uint) error
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository constructs the file repository.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) List(ctx context.Context, limit int) ([]FileWithUploader, error) {
	query := r.db.WithContext(ctx).Model(&models.DownloadableFile{}).
		Select("downloadable_files.*, users.full_name AS uploader_name").
		Joins("JOIN users ON users.id = downloadable_files.uploader_id").
		Order("downloadable_files.created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []FileWithUploader
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *fileRepository) GetByID(ctx context.Context, id uint) (models.DownloadableFile, error) {
	var file models.DownloadableFile
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return models.DownloadableFile{}, err
	}

	return file, nil
}

func (r *fileRepository) Create(ctx context.Context, file *models.DownloadableFile) error {
	return r.db.WithContext(ctx).Omit("Uploader").Create(file).Error
}

func (r *fileRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.DownloadableFile{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
