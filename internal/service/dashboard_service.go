package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// DashboardService produces role-specific counters.
type DashboardService interface {
	Get(ctx context.Context, identity auth.Identity) (dto.DashboardResponse, error)
}

type dashboardService struct {
	stats    repository.StatsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(stats repository.StatsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		stats:    stats,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		now:      time.Now,
	}
}

func (s *dashboardService) Get(ctx context.Context, identity auth.Identity) (dto.DashboardResponse, error) {
	key := fmt.Sprintf("dashboard:%s:%d", identity.Role.String(), identity.UserID)
	return readThrough(ctx, s.cache, s.logger, "dashboard", key, s.cacheTTL, func(ctx context.Context) (dto.DashboardResponse, error) {
		stats, err := s.collect(ctx, identity)
		if err != nil {
			return dto.DashboardResponse{}, err
		}

		return dto.DashboardResponse{
			User: dto.DashboardUser{
				ID:       identity.UserID,
				FullName: identity.FullName,
				Role:     identity.Role.String(),
			},
			Stats:       stats,
			GeneratedAt: s.now().UTC(),
		}, nil
	})
}

type statLoader struct {
	key   string
	title string
	icon  string
	load  func(context.Context) (int64, error)
}

func (s *dashboardService) collect(ctx context.Context, identity auth.Identity) ([]dto.DashboardStat, error) {
	users := statLoader{"users", "Users", "fa-users", s.stats.CountUsers}
	events := statLoader{"events", "Events", "fa-calendar-alt", s.stats.CountEvents}
	articles := statLoader{"published_articles", "Published articles", "fa-newspaper", func(ctx context.Context) (int64, error) {
		return s.stats.CountArticles(ctx, nil, models.ArticleStatusPublished)
	}}
	activeSurveys := statLoader{"active_surveys", "Active surveys", "fa-poll", func(ctx context.Context) (int64, error) {
		return s.stats.CountSurveys(ctx, models.SurveyStatusActive)
	}}

	var loaders []statLoader
	switch identity.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		loaders = []statLoader{users, events, articles,
			{"pending_complaints", "Pending complaints", "fa-gavel", func(ctx context.Context) (int64, error) {
				return s.stats.CountComplaints(ctx, models.ComplaintStatusReceived)
			}},
			activeSurveys,
		}
	case models.RoleEditor:
		authorID := identity.UserID
		loaders = []statLoader{
			{"my_articles", "My articles", "fa-newspaper", func(ctx context.Context) (int64, error) {
				return s.stats.CountArticles(ctx, &authorID, "")
			}},
			{"my_drafts", "Drafts", "fa-file-alt", func(ctx context.Context) (int64, error) {
				return s.stats.CountArticles(ctx, &authorID, models.ArticleStatusDraft)
			}},
			events,
		}
	case models.RoleManager:
		loaders = []statLoader{activeSurveys,
			{"survey_submissions", "Survey submissions", "fa-chart-line", s.stats.CountSubmissions},
			users,
		}
	case models.RoleModerator:
		loaders = []statLoader{
			{"pending_complaints", "Pending complaints", "fa-gavel", func(ctx context.Context) (int64, error) {
				return s.stats.CountComplaints(ctx, models.ComplaintStatusReceived, models.ComplaintStatusUnderReview)
			}},
			users, events,
		}
	default:
		loaders = []statLoader{users, events, articles}
	}

	stats := make([]dto.DashboardStat, 0, len(loaders))
	for _, loader := range loaders {
		value, err := loader.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", loader.key, err)
		}
		stats = append(stats, dto.DashboardStat{Key: loader.key, Title: loader.title, Icon: loader.icon, Value: value})
	}
	return stats, nil
}
