package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// ArticleFilter narrows article listings.
type ArticleFilter struct {
	AuthorID      *uint
	PublishedOnly bool
	Limit         int
}

// ArticleWithAuthor is an article row joined with the author's name.
type ArticleWithAuthor struct {
	models.NewsArticle
	AuthorName string `json:"author_name"`
}

// ArticleRepository persists news articles and their attachments.
type ArticleRepository interface {
	List(ctx context.Context, filter ArticleFilter) ([]ArticleWithAuthor, error)
	GetByID(ctx context.Context, id uint) (ArticleWithAuthor, error)
	// Create stores the article and its attachments in one transaction.
	Create(ctx context.Context, article *models.NewsArticle) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (ArticleWithAuthor, error)
	Delete(ctx context.Context, id uint) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository constructs the article repository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.NewsArticle{}).
		Select("news_articles.*, users.full_name AS author_name").
		Joins("JOIN users ON users.id = news_articles.author_id")
}

func (r *articleRepository) List(ctx context.Context, filter ArticleFilter) ([]ArticleWithAuthor, error) {
	query := r.base(ctx)

	if filter.AuthorID != nil {
		query = query.Where("news_articles.author_id = ?", *filter.AuthorID)
	}

	if filter.PublishedOnly {
		query = query.Where("news_articles.status = ?", models.ArticleStatusPublished).
			Order("news_articles.published_at DESC")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []ArticleWithAuthor
	if err := query.Order("news_articles.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (ArticleWithAuthor, error) {
	var row ArticleWithAuthor
	result := r.base(ctx).Where("news_articles.id = ?", id).Limit(1).Scan(&row)
	if result.Error != nil {
		return ArticleWithAuthor{}, result.Error
	}
	if result.RowsAffected == 0 {
		return ArticleWithAuthor{}, gorm.ErrRecordNotFound
	}

	var attachments []models.ArticleAttachment
	if err := r.db.WithContext(ctx).Where("article_id = ?", id).Order("id ASC").Find(&attachments).Error; err != nil {
		return ArticleWithAuthor{}, err
	}
	row.Attachments = attachments

	return row, nil
}

func (r *articleRepository) Create(ctx context.Context, article *models.NewsArticle) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attachments := article.Attachments
		article.Attachments = nil

		if err := tx.Omit("Author").Create(article).Error; err != nil {
			return err
		}

		for i := range attachments {
			attachments[i].ArticleID = article.ID
			if err := tx.Create(&attachments[i]).Error; err != nil {
				return err
			}
		}

		article.Attachments = attachments
		return nil
	})
}

func (r *articleRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (ArticleWithAuthor, error) {
	result := r.db.WithContext(ctx).Model(&models.NewsArticle{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return ArticleWithAuthor{}, result.Error
	}

	return r.GetByID(ctx, id)
}

func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleAttachment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.NewsArticle{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
