package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)

// ArticleService manages news articles.
type ArticleService interface {
	List(ctx context.Context, actor auth.Identity) ([]dto.ArticleResponse, error)
	Get(ctx context.Context, actor auth.Identity, id uint) (dto.ArticleResponse, error)
	Create(ctx context.Context, actor auth.Identity, req dto.ArticleCreateRequest) (dto.ArticleResponse, error)
	Update(ctx context.Context, actor auth.Identity, id uint, req dto.ArticleUpdateRequest) (dto.ArticleResponse, error)
	Delete(ctx context.Context, actor auth.Identity, id uint) error
	ListPublished(ctx context.Context) ([]dto.ArticleResponse, error)
	GetPublished(ctx context.Context, id uint) (dto.ArticleResponse, error)
}

type articleService struct {
	repo      repository.ArticleRepository
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewArticleService constructs the article service.
func NewArticleService(repo repository.ArticleRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) ArticleService {
	return &articleService{
		repo:      repo,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "article_service").Logger(),
		now:       time.Now,
	}
}

func (s *articleService) List(ctx context.Context, actor auth.Identity) ([]dto.ArticleResponse, error) {
	filter := repository.ArticleFilter{}
	if actor.Role == models.RoleEditor {
		filter.AuthorID = &actor.UserID
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	articles := make([]dto.ArticleResponse, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, dto.NewArticleSummaryResponse(row))
	}
	return articles, nil
}

func (s *articleService) Get(ctx context.Context, actor auth.Identity, id uint) (dto.ArticleResponse, error) {
	row, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.ArticleResponse{}, err
	}
	return dto.NewArticleResponse(row), nil
}

func (s *articleService) Create(ctx context.Context, actor auth.Identity, req dto.ArticleCreateRequest) (dto.ArticleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ArticleResponse{}, err
	}

	status := req.Status
	if status == "" {
		status = models.ArticleStatusDraft
	}

	article := models.NewsArticle{
		Title:            strings.TrimSpace(req.Title),
		Slug:             s.slug(req.Title),
		Content:          s.sanitizer.Sanitize(req.Content),
		FeaturedImageURL: strings.TrimSpace(req.FeaturedImageURL),
		AuthorID:         actor.UserID,
		Status:           status,
	}
	if status == models.ArticleStatusPublished {
		publishedAt := s.now()
		article.PublishedAt = &publishedAt
	}
	for _, attachment := range req.Attachments {
		article.Attachments = append(article.Attachments, models.ArticleAttachment{
			FileName:   strings.TrimSpace(attachment.FileName),
			FilePath:   strings.TrimSpace(attachment.FilePath),
			FileType:   strings.TrimSpace(attachment.FileType),
			UploaderID: actor.UserID,
		})
	}

	if err := s.repo.Create(ctx, &article); err != nil {
		return dto.ArticleResponse{}, fmt.Errorf("create article: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionArticleCreated,
		EntityType: "article",
		EntityID:   uintPtr(article.ID),
		Metadata:   map[string]interface{}{"title": article.Title, "status": article.Status},
	})

	row, err := s.repo.GetByID(ctx, article.ID)
	if err != nil {
		return dto.ArticleResponse{}, err
	}
	return dto.NewArticleResponse(row), nil
}

func (s *articleService) Update(ctx context.Context, actor auth.Identity, id uint, req dto.ArticleUpdateRequest) (dto.ArticleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ArticleResponse{}, err
	}

	current, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.ArticleResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		updates["content"] = s.sanitizer.Sanitize(*req.Content)
	}
	if req.FeaturedImageURL != nil {
		updates["featured_image_url"] = strings.TrimSpace(*req.FeaturedImageURL)
	}
	if req.Status != nil && *req.Status != current.Status {
		updates["status"] = *req.Status
		if *req.Status == models.ArticleStatusPublished {
			updates["published_at"] = s.now()
		} else {
			updates["published_at"] = nil
		}
	}

	if len(updates) == 0 {
		return dto.NewArticleResponse(current), nil
	}

	row, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return dto.ArticleResponse{}, fmt.Errorf("update article: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionArticleUpdated,
		EntityType: "article",
		EntityID:   uintPtr(id),
	})

	return dto.NewArticleResponse(row), nil
}

func (s *articleService) Delete(ctx context.Context, actor auth.Identity, id uint) error {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		return fmt.Errorf("delete article: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionArticleDeleted,
		EntityType: "article",
		EntityID:   uintPtr(id),
	})
	return nil
}

func (s *articleService) ListPublished(ctx context.Context) ([]dto.ArticleResponse, error) {
	rows, err := s.repo.List(ctx, repository.ArticleFilter{PublishedOnly: true})
	if err != nil {
		return nil, err
	}

	articles := make([]dto.ArticleResponse, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, dto.NewArticleSummaryResponse(row))
	}
	return articles, nil
}

func (s *articleService) GetPublished(ctx context.Context, id uint) (dto.ArticleResponse, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ArticleResponse{}, ErrArticleNotFound
		}
		return dto.ArticleResponse{}, err
	}
	if !row.IsPublished() {
		return dto.ArticleResponse{}, ErrArticleNotFound
	}
	return dto.NewArticleResponse(row), nil
}

// loadOwned fetches an article and enforces that editors only reach their own.
func (s *articleService) loadOwned(ctx context.Context, actor auth.Identity, id uint) (repository.ArticleWithAuthor, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ArticleWithAuthor{}, ErrArticleNotFound
		}
		return repository.ArticleWithAuthor{}, err
	}

	if actor.Role == models.RoleEditor && row.AuthorID != actor.UserID {
		return repository.ArticleWithAuthor{}, ErrNotArticleAuthor
	}
	return row, nil
}

func (s *articleService) slug(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = strings.Join(strings.Fields(base), "-")
	base = strings.Trim(slugInvalid.ReplaceAllString(base, ""), "-")
	if base == "" {
		base = "article"
	}
	if len(base) > 280 {
		base = base[:280]
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}
