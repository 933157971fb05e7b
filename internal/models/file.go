package models

import "time"

// DownloadableFile is a document published for students to download.
type DownloadableFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	FilePath   string    `gorm:"size:512;not null" json:"file_path"`
	FileType   string    `gorm:"size:128" json:"file_type"`
	FileSizeKB int64     `gorm:"not null;default:0" json:"file_size_kb"`
	UploaderID uint      `gorm:"not null;index" json:"uploader_id"`
	Uploader   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
