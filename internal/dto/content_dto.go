package dto

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

const excerptLength = 200

var plainText = bluemonday.StrictPolicy()

// ArticleCreateRequest is the payload for a new news article.
type ArticleCreateRequest struct {
	Title            string                     `json:"title" validate:"required,min=3,max=255"`
	Content          string                     `json:"content" validate:"required"`
	FeaturedImageURL string                     `json:"featured_image_url" validate:"omitempty,url,max=512"`
	Status           string                     `json:"status" validate:"omitempty,oneof=draft published"`
	Attachments      []ArticleAttachmentRequest `json:"attachments" validate:"omitempty,dive"`
}

// ArticleAttachmentRequest links an already uploaded file to the article.
type ArticleAttachmentRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
	FilePath string `json:"file_path" validate:"required,max=512"`
	FileType string `json:"file_type" validate:"omitempty,max=128"`
}

// ArticleUpdateRequest captures partial edits.
type ArticleUpdateRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=3,max=255"`
	Content          *string `json:"content" validate:"omitempty,min=1"`
	FeaturedImageURL *string `json:"featured_image_url" validate:"omitempty,url,max=512"`
	Status           *string `json:"status" validate:"omitempty,oneof=draft published"`
}

// AttachmentResponse is a file linked from an article.
type AttachmentResponse struct {
	ID       uint   `json:"id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path,omitempty"`
	FileType string `json:"file_type,omitempty"`
}

// ArticleResponse is the full article view.
type ArticleResponse struct {
	ID               uint                 `json:"id"`
	Title            string               `json:"title"`
	Slug             string               `json:"slug"`
	Content          string               `json:"content,omitempty"`
	Excerpt          string               `json:"excerpt,omitempty"`
	FeaturedImageURL string               `json:"featured_image_url,omitempty"`
	AuthorID         uint                 `json:"author_id"`
	AuthorName       string               `json:"author_name"`
	Status           string               `json:"status"`
	PublishedAt      *time.Time           `json:"published_at"`
	CreatedAt        time.Time            `json:"created_at"`
	Attachments      []AttachmentResponse `json:"attachments,omitempty"`
}

// NewArticleResponse converts an article row with its attachments.
func NewArticleResponse(row repository.ArticleWithAuthor) ArticleResponse {
	response := ArticleResponse{
		ID:               row.ID,
		Title:            row.Title,
		Slug:             row.Slug,
		Content:          row.Content,
		FeaturedImageURL: row.FeaturedImageURL,
		AuthorID:         row.AuthorID,
		AuthorName:       row.AuthorName,
		Status:           row.Status,
		PublishedAt:      row.PublishedAt,
		CreatedAt:        row.CreatedAt,
	}

	for _, attachment := range row.Attachments {
		response.Attachments = append(response.Attachments, newAttachmentResponse(attachment))
	}
	return response
}

// NewArticleSummaryResponse converts a row for student listings: content is
// replaced by an excerpt.
func NewArticleSummaryResponse(row repository.ArticleWithAuthor) ArticleResponse {
	response := NewArticleResponse(row)
	response.Excerpt = Excerpt(strings.TrimSpace(plainText.Sanitize(row.Content)), excerptLength)
	response.Content = ""
	response.Attachments = nil
	return response
}

func newAttachmentResponse(attachment models.ArticleAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:       attachment.ID,
		FileName: attachment.FileName,
		FilePath: attachment.FilePath,
		FileType: attachment.FileType,
	}
}

// Excerpt truncates text to at most limit runes.
func Excerpt(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
