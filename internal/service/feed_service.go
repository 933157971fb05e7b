package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

const (
	feedCacheKey  = "feed:home"
	feedPerSource = 2
)

// FeedService builds the home page feed.
type FeedService interface {
	Home(ctx context.Context) (dto.FeedResponse, error)
}

type feedService struct {
	events   repository.EventRepository
	surveys  repository.SurveyRepository
	files    repository.FileRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewFeedService constructs the feed builder.
func NewFeedService(events repository.EventRepository, surveys repository.SurveyRepository, files repository.FileRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) FeedService {
	return &feedService{
		events:   events,
		surveys:  surveys,
		files:    files,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "feed_service").Logger(),
	}
}

func (s *feedService) Home(ctx context.Context) (dto.FeedResponse, error) {
	return readThrough(ctx, s.cache, s.logger, "feed", feedCacheKey, s.cacheTTL, s.build)
}

func (s *feedService) build(ctx context.Context) (dto.FeedResponse, error) {
	events, err := s.events.List(ctx, repository.EventFilter{PublishedOnly: true, Limit: feedPerSource})
	if err != nil {
		return dto.FeedResponse{}, fmt.Errorf("load events: %w", err)
	}

	surveys, err := s.surveys.ListActiveForUser(ctx, 0, feedPerSource)
	if err != nil {
		return dto.FeedResponse{}, fmt.Errorf("load surveys: %w", err)
	}

	files, err := s.files.List(ctx, feedPerSource)
	if err != nil {
		return dto.FeedResponse{}, fmt.Errorf("load files: %w", err)
	}

	items := make([]dto.FeedItem, 0, len(events)+len(surveys)+len(files))
	for _, event := range events {
		items = append(items, dto.FeedItem{
			Type:      "event",
			ID:        event.ID,
			Title:     event.Title,
			Summary:   dto.Excerpt(event.Description, 200),
			Timestamp: event.StartTime,
		})
	}
	for _, survey := range surveys {
		items = append(items, dto.FeedItem{
			Type:      "survey",
			ID:        survey.ID,
			Title:     survey.Title,
			Summary:   dto.Excerpt(survey.Description, 200),
			Timestamp: survey.CreatedAt,
		})
	}
	for _, file := range files {
		items = append(items, dto.FeedItem{
			Type:      "file",
			ID:        file.ID,
			Title:     file.FileName,
			Summary:   file.FileType,
			Link:      file.FilePath,
			Timestamp: file.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	return dto.FeedResponse{Items: items}, nil
}
