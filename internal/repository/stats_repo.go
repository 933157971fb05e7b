package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// StatsRepository answers the counters shown on role dashboards.
type StatsRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountEvents(ctx context.Context) (int64, error)
	CountArticles(ctx context.Context, authorID *uint, status string) (int64, error)
	CountComplaints(ctx context.Context, statuses ...string) (int64, error)
	CountSurveys(ctx context.Context, status string) (int64, error)
	CountSubmissions(ctx context.Context) (int64, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository constructs the dashboard statistics repository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) count(ctx context.Context, model interface{}, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	query := r.db.WithContext(ctx).Model(model)
	if scope != nil {
		query = scope(query)
	}

	var total int64
	err := query.Count(&total).Error
	return total, err
}

func (r *statsRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.User{}, nil)
}

func (r *statsRepository) CountEvents(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Event{}, nil)
}

func (r *statsRepository) CountArticles(ctx context.Context, authorID *uint, status string) (int64, error) {
	return r.count(ctx, &models.NewsArticle{}, func(db *gorm.DB) *gorm.DB {
		if authorID != nil {
			db = db.Where("author_id = ?", *authorID)
		}
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	})
}

func (r *statsRepository) CountComplaints(ctx context.Context, statuses ...string) (int64, error) {
	return r.count(ctx, &models.Complaint{}, func(db *gorm.DB) *gorm.DB {
		if len(statuses) > 0 {
			db = db.Where("status IN ?", statuses)
		}
		return db
	})
}

func (r *statsRepository) CountSurveys(ctx context.Context, status string) (int64, error) {
	return r.count(ctx, &models.Survey{}, func(db *gorm.DB) *gorm.DB {
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	})
}

func (r *statsRepository) CountSubmissions(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.SurveySubmission{}, nil)
}
