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
	"github.com/noah-isme/campus-portal-api/internal/messaging"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// ComplaintService handles student complaints and the moderation workflow.
type ComplaintService interface {
	Create(ctx context.Context, actor auth.Identity, req dto.ComplaintCreateRequest) (dto.ComplaintResponse, error)
	List(ctx context.Context) ([]dto.ComplaintResponse, error)
	Get(ctx context.Context, id uint) (dto.ComplaintResponse, error)
	Respond(ctx context.Context, actor auth.Identity, id uint, req dto.ComplaintResponseRequest) (dto.ComplaintResponse, error)
	UpdateStatus(ctx context.Context, actor auth.Identity, id uint, req dto.ComplaintStatusRequest) error
}

type complaintService struct {
	repo      repository.ComplaintRepository
	activity  ActivityRecorder
	publisher messaging.Publisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewComplaintService constructs the complaint service.
func NewComplaintService(repo repository.ComplaintRepository, activity ActivityRecorder, publisher messaging.Publisher, validate *validator.Validate, logger zerolog.Logger) ComplaintService {
	if publisher == nil {
		publisher = messaging.Discard{}
	}

	return &complaintService{
		repo:      repo,
		activity:  activity,
		publisher: publisher,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "complaint_service").Logger(),
	}
}

func (s *complaintService) Create(ctx context.Context, actor auth.Identity, req dto.ComplaintCreateRequest) (dto.ComplaintResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ComplaintResponse{}, err
	}

	complaint := models.Complaint{
		UserID:      actor.UserID,
		Title:       s.clean(req.Title),
		Category:    s.clean(req.Category),
		Description: s.clean(req.Description),
		Status:      models.ComplaintStatusReceived,
	}
	if req.PhoneNumber != nil {
		if phone := strings.TrimSpace(*req.PhoneNumber); phone != "" {
			complaint.PhoneNumber = &phone
		}
	}

	verr := &ValidationError{}
	if complaint.Title == "" {
		verr.add("title", "title is required")
	}
	if complaint.Description == "" {
		verr.add("description", "description is required")
	}
	if err := verr.orNil(); err != nil {
		return dto.ComplaintResponse{}, err
	}

	if err := s.repo.Create(ctx, &complaint); err != nil {
		return dto.ComplaintResponse{}, fmt.Errorf("create complaint: %w", err)
	}

	response := dto.NewComplaintResponse(complaint)
	if err := s.publisher.Publish(ctx, messaging.SubjectComplaintCreated, response); err != nil {
		s.logger.Warn().Err(err).Uint("complaint_id", complaint.ID).Msg("failed to publish complaint event")
	}

	return response, nil
}

func (s *complaintService) List(ctx context.Context) ([]dto.ComplaintResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	complaints := make([]dto.ComplaintResponse, 0, len(rows))
	for _, row := range rows {
		complaints = append(complaints, dto.NewComplaintSummaryResponse(row))
	}
	return complaints, nil
}

func (s *complaintService) Get(ctx context.Context, id uint) (dto.ComplaintResponse, error) {
	complaint, err := s.repo.GetWithResponses(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ComplaintResponse{}, ErrComplaintNotFound
		}
		return dto.ComplaintResponse{}, err
	}
	return dto.NewComplaintResponse(complaint), nil
}

func (s *complaintService) Respond(ctx context.Context, actor auth.Identity, id uint, req dto.ComplaintResponseRequest) (dto.ComplaintResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ComplaintResponse{}, err
	}

	message := s.clean(req.Message)
	if message == "" {
		return dto.ComplaintResponse{}, newValidationError("message", "response message cannot be empty")
	}

	if _, err := s.repo.GetWithResponses(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ComplaintResponse{}, ErrComplaintNotFound
		}
		return dto.ComplaintResponse{}, err
	}

	reply := models.ComplaintResponse{
		ComplaintID: id,
		ResponderID: actor.UserID,
		Message:     message,
	}
	if err := s.repo.AddResponse(ctx, &reply); err != nil {
		return dto.ComplaintResponse{}, fmt.Errorf("add complaint response: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionComplaintResponded,
		EntityType: "complaint",
		EntityID:   uintPtr(id),
	})

	return s.Get(ctx, id)
}

func (s *complaintService) UpdateStatus(ctx context.Context, actor auth.Identity, id uint, req dto.ComplaintStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrComplaintNotFound
		}
		return fmt.Errorf("update complaint status: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionComplaintStatusChanged,
		EntityType: "complaint",
		EntityID:   uintPtr(id),
		Metadata:   map[string]interface{}{"status": req.Status},
	})
	return nil
}

func (s *complaintService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}
