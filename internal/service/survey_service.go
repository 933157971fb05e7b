package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// SurveyService manages surveys for staff and serves them to students.
type SurveyService interface {
	List(ctx context.Context) ([]dto.SurveySummaryResponse, error)
	Create(ctx context.Context, actor auth.Identity, req dto.SurveyCreateRequest) (dto.SurveyDetailResponse, error)
	ListForStudent(ctx context.Context, userID uint) ([]repository.StudentSurvey, error)
	// GetForStudent returns an active survey's questions. It fails with
	// ErrAlreadySubmitted once the student answered it.
	GetForStudent(ctx context.Context, surveyID, userID uint) (dto.SurveyDetailResponse, error)
}

type surveyService struct {
	repo      repository.SurveyRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSurveyService constructs the survey service.
func NewSurveyService(repo repository.SurveyRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) SurveyService {
	return &surveyService{
		repo:      repo,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "survey_service").Logger(),
	}
}

func (s *surveyService) List(ctx context.Context) ([]dto.SurveySummaryResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	surveys := make([]dto.SurveySummaryResponse, 0, len(rows))
	for _, row := range rows {
		surveys = append(surveys, dto.NewSurveySummaryResponse(row))
	}
	return surveys, nil
}

func (s *surveyService) Create(ctx context.Context, actor auth.Identity, req dto.SurveyCreateRequest) (dto.SurveyDetailResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SurveyDetailResponse{}, err
	}

	status := req.Status
	if status == "" {
		status = models.SurveyStatusDraft
	}

	survey := models.Survey{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		CreatorID:   actor.UserID,
		Questions:   make([]models.SurveyQuestion, 0, len(req.Questions)),
	}

	verr := &ValidationError{}
	for i, question := range req.Questions {
		item := models.SurveyQuestion{
			Position:     i + 1,
			QuestionText: strings.TrimSpace(question.QuestionText),
			QuestionType: question.QuestionType,
		}

		if item.IsFreeText() {
			if len(question.Options) > 0 {
				verr.add(fmt.Sprintf("questions[%d].options", i), "text questions do not take options")
			}
		} else {
			if len(question.Options) < 2 {
				verr.add(fmt.Sprintf("questions[%d].options", i), "choice questions need at least two options")
			}
			for _, option := range question.Options {
				item.Options = append(item.Options, models.QuestionOption{OptionText: strings.TrimSpace(option)})
			}
		}

		survey.Questions = append(survey.Questions, item)
	}
	if err := verr.orNil(); err != nil {
		return dto.SurveyDetailResponse{}, err
	}

	if err := s.repo.CreateWithQuestions(ctx, &survey); err != nil {
		return dto.SurveyDetailResponse{}, fmt.Errorf("create survey: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionSurveyCreated,
		EntityType: "survey",
		EntityID:   uintPtr(survey.ID),
		Metadata:   map[string]interface{}{"title": survey.Title, "questions": len(survey.Questions)},
	})

	return dto.NewSurveyDetailResponse(survey), nil
}

func (s *surveyService) ListForStudent(ctx context.Context, userID uint) ([]repository.StudentSurvey, error) {
	surveys, err := s.repo.ListActiveForUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if surveys == nil {
		surveys = []repository.StudentSurvey{}
	}
	return surveys, nil
}

func (s *surveyService) GetForStudent(ctx context.Context, surveyID, userID uint) (dto.SurveyDetailResponse, error) {
	submitted, err := s.repo.HasSubmitted(ctx, surveyID, userID)
	if err != nil {
		return dto.SurveyDetailResponse{}, err
	}
	if submitted {
		return dto.SurveyDetailResponse{}, ErrAlreadySubmitted
	}

	survey, err := s.repo.GetWithQuestions(ctx, surveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SurveyDetailResponse{}, ErrSurveyNotFound
		}
		return dto.SurveyDetailResponse{}, err
	}
	if !survey.IsActive() {
		return dto.SurveyDetailResponse{}, ErrSurveyNotFound
	}

	return dto.NewSurveyDetailResponse(survey), nil
}
