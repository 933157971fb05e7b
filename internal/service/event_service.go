package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// EventService manages events for staff and lists them for students.
type EventService interface {
	List(ctx context.Context) ([]dto.EventResponse, error)
	ListForStudent(ctx context.Context, userID uint) ([]dto.EventResponse, error)
	Get(ctx context.Context, id uint) (dto.EventResponse, error)
	Registrants(ctx context.Context, id uint) (dto.EventRegistrantsResponse, error)
	Create(ctx context.Context, actor auth.Identity, req dto.EventCreateRequest) (dto.EventResponse, error)
	Update(ctx context.Context, actor auth.Identity, id uint, req dto.EventUpdateRequest) (dto.EventResponse, error)
}

type eventService struct {
	repo      repository.EventRepository
	activity  ActivityRecorder
	images    *ImageUploader
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewEventService constructs the event service. Cover uploads are refused
// with ErrStorageUnavailable when images is nil.
func NewEventService(repo repository.EventRepository, activity ActivityRecorder, images *ImageUploader, validate *validator.Validate, logger zerolog.Logger) EventService {
	return &eventService{
		repo:      repo,
		activity:  activity,
		images:    images,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "event_service").Logger(),
	}
}

func (s *eventService) List(ctx context.Context) ([]dto.EventResponse, error) {
	return s.list(ctx, repository.EventFilter{})
}

func (s *eventService) ListForStudent(ctx context.Context, userID uint) ([]dto.EventResponse, error) {
	return s.list(ctx, repository.EventFilter{PublishedOnly: true, ViewerID: &userID})
}

func (s *eventService) list(ctx context.Context, filter repository.EventFilter) ([]dto.EventResponse, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	events := make([]dto.EventResponse, 0, len(rows))
	for _, row := range rows {
		events = append(events, dto.NewEventResponseWithStats(row))
	}
	return events, nil
}

func (s *eventService) Get(ctx context.Context, id uint) (dto.EventResponse, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EventResponse{}, ErrEventNotFound
		}
		return dto.EventResponse{}, err
	}
	return dto.NewEventResponse(event), nil
}

func (s *eventService) Registrants(ctx context.Context, id uint) (dto.EventRegistrantsResponse, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return dto.EventRegistrantsResponse{}, err
	}

	registrants, err := s.repo.ListRegistrants(ctx, id)
	if err != nil {
		return dto.EventRegistrantsResponse{}, err
	}
	if registrants == nil {
		registrants = []repository.EventRegistrant{}
	}

	event.RegisteredCount = int64(len(registrants))
	return dto.EventRegistrantsResponse{Event: event, Registrants: registrants}, nil
}

func (s *eventService) Create(ctx context.Context, actor auth.Identity, req dto.EventCreateRequest) (dto.EventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EventResponse{}, err
	}

	status := req.Status
	if status == "" {
		status = models.EventStatusPublished
	}

	event := models.Event{
		Title:                strings.TrimSpace(req.Title),
		Description:          s.sanitizer.Sanitize(req.Description),
		Location:             strings.TrimSpace(req.Location),
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		RegistrationDeadline: req.RegistrationDeadline,
		MaxAttendees:         normalizeCapacity(req.MaxAttendees),
		OrganizerID:          actor.UserID,
		TermsConditions:      s.sanitizer.Sanitize(req.TermsConditions),
		CoverImageURL:        strings.TrimSpace(req.CoverImageURL),
		Status:               status,
	}

	if req.CoverImageUpload != nil {
		location, err := s.images.Store(ctx, "cover", req.CoverImageUpload)
		if err != nil {
			return dto.EventResponse{}, err
		}
		event.CoverImageURL = location
	}

	if err := s.repo.Create(ctx, &event); err != nil {
		if req.CoverImageUpload != nil {
			s.images.Discard(ctx, event.CoverImageURL)
		}
		return dto.EventResponse{}, fmt.Errorf("create event: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionEventCreated,
		EntityType: "event",
		EntityID:   uintPtr(event.ID),
		Metadata:   map[string]interface{}{"title": event.Title},
	})

	return dto.NewEventResponse(event), nil
}

func (s *eventService) Update(ctx context.Context, actor auth.Identity, id uint, req dto.EventUpdateRequest) (dto.EventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EventResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EventResponse{}, ErrEventNotFound
		}
		return dto.EventResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = s.sanitizer.Sanitize(*req.Description)
	}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
		current.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = *req.EndTime
		current.EndTime = *req.EndTime
	}
	if req.RegistrationDeadline != nil {
		updates["registration_deadline"] = *req.RegistrationDeadline
		current.RegistrationDeadline = *req.RegistrationDeadline
	}
	if req.ClearMaxAttendees {
		updates["max_attendees"] = nil
	} else if req.MaxAttendees != nil {
		updates["max_attendees"] = normalizeCapacity(req.MaxAttendees)
	}
	if req.TermsConditions != nil {
		updates["terms_conditions"] = s.sanitizer.Sanitize(*req.TermsConditions)
	}
	if req.CoverImageURL != nil {
		updates["cover_image_url"] = strings.TrimSpace(*req.CoverImageURL)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	verr := &ValidationError{}
	if current.EndTime.Before(current.StartTime) {
		verr.add("end_time", "must not be before start_time")
	}
	if current.RegistrationDeadline.After(current.StartTime) {
		verr.add("registration_deadline", "must not be after start_time")
	}
	if err := verr.orNil(); err != nil {
		return dto.EventResponse{}, err
	}

	previousCover := current.CoverImageURL
	if req.CoverImageUpload != nil {
		location, err := s.images.Store(ctx, "cover", req.CoverImageUpload)
		if err != nil {
			return dto.EventResponse{}, err
		}
		updates["cover_image_url"] = location
	}

	if len(updates) == 0 {
		return dto.NewEventResponse(current), nil
	}

	event, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if req.CoverImageUpload != nil {
			s.images.Discard(ctx, updates["cover_image_url"].(string))
		}
		return dto.EventResponse{}, fmt.Errorf("update event: %w", err)
	}
	if req.CoverImageUpload != nil && previousCover != event.CoverImageURL {
		s.images.Discard(ctx, previousCover)
	}

	fields := make([]string, 0, len(updates))
	for column := range updates {
		fields = append(fields, column)
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionEventUpdated,
		EntityType: "event",
		EntityID:   uintPtr(id),
		Metadata:   map[string]interface{}{"fields": fields},
	})

	return dto.NewEventResponse(event), nil
}

// normalizeCapacity maps non-positive capacities to unlimited.
func normalizeCapacity(value *int) *int {
	if value == nil || *value <= 0 {
		return nil
	}
	capacity := *value
	return &capacity
}
