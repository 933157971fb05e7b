package models

import "time"

const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
)

// NewsArticle is editorial content authored by staff.
type NewsArticle struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	Title            string              `gorm:"size:255;not null" json:"title"`
	Slug             string              `gorm:"size:320;uniqueIndex;not null" json:"slug"`
	Content          string              `gorm:"type:text" json:"content"`
	FeaturedImageURL string              `gorm:"size:512" json:"featured_image_url"`
	AuthorID         uint                `gorm:"not null;index" json:"author_id"`
	Author           User                `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Status           string              `gorm:"size:32;not null;default:'draft';index" json:"status"`
	PublishedAt      *time.Time          `json:"published_at"`
	Attachments      []ArticleAttachment `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// IsPublished reports whether students can read the article.
func (a NewsArticle) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// ArticleAttachment is a file linked from an article.
type ArticleAttachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ArticleID  uint      `gorm:"not null;index" json:"article_id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	FilePath   string    `gorm:"size:512;not null" json:"file_path"`
	FileType   string    `gorm:"size:128" json:"file_type"`
	UploaderID uint      `gorm:"not null" json:"uploader_id"`
	CreatedAt  time.Time `json:"created_at"`
}
