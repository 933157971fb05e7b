package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/messaging"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/observability"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// SurveySubmissionService records survey answers exactly once per user.
type SurveySubmissionService interface {
	// Submit validates the answers against the survey's questions and then
	// stores the submission header and every answer in one transaction.
	Submit(ctx context.Context, surveyID, userID uint, req dto.SurveySubmitRequest) (dto.SurveySubmissionResponse, error)
}

type surveySubmissionService struct {
	surveys   repository.SurveyRepository
	store     repository.SubmissionStore
	publisher messaging.Publisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
	tracer    trace.Tracer
}

// NewSurveySubmissionService constructs the submission recorder.
func NewSurveySubmissionService(surveys repository.SurveyRepository, store repository.SubmissionStore, publisher messaging.Publisher, validate *validator.Validate, logger zerolog.Logger) SurveySubmissionService {
	if publisher == nil {
		publisher = messaging.Discard{}
	}

	return &surveySubmissionService{
		surveys:   surveys,
		store:     store,
		publisher: publisher,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "survey_submission_service").Logger(),
		now:       time.Now,
		tracer:    otel.Tracer("github.com/noah-isme/campus-portal-api/internal/service/survey_submission"),
	}
}

func (s *surveySubmissionService) Submit(ctx context.Context, surveyID, userID uint, req dto.SurveySubmitRequest) (dto.SurveySubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "survey.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("survey.id", int64(surveyID)),
		attribute.Int64("user.id", int64(userID)),
		attribute.Int("survey.answer_count", len(req.Answers)),
	)

	response, err := s.submit(ctx, surveyID, userID, req)

	outcome := submissionOutcome(err)
	observability.SubmissionOutcomes().WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("survey.outcome", outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if outcome == "error" {
			s.logger.Error().Err(err).Uint("survey_id", surveyID).Uint("user_id", userID).Msg("survey submission failed")
		}
		return dto.SurveySubmissionResponse{}, err
	}

	if pubErr := s.publisher.Publish(ctx, messaging.SubjectSurveySubmitted, response); pubErr != nil {
		s.logger.Warn().Err(pubErr).Uint("survey_id", surveyID).Msg("failed to publish submission event")
	}

	s.logger.Info().Uint("survey_id", surveyID).Uint("user_id", userID).Int("answers", response.AnswerCount).Msg("survey submission recorded")
	return response, nil
}

func (s *surveySubmissionService) submit(ctx context.Context, surveyID, userID uint, req dto.SurveySubmitRequest) (dto.SurveySubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SurveySubmissionResponse{}, err
	}
	if userID == 0 {
		return dto.SurveySubmissionResponse{}, newValidationError("user_id", "user id is required")
	}

	survey, err := s.surveys.GetWithQuestions(ctx, surveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SurveySubmissionResponse{}, ErrSurveyNotFound
		}
		return dto.SurveySubmissionResponse{}, fmt.Errorf("load survey: %w", err)
	}

	// A repeat stays AlreadySubmitted after the survey closes.
	submitted, err := s.surveys.HasSubmitted(ctx, surveyID, userID)
	if err != nil {
		return dto.SurveySubmissionResponse{}, fmt.Errorf("check submission: %w", err)
	}
	if submitted {
		return dto.SurveySubmissionResponse{}, ErrAlreadySubmitted
	}
	if !survey.IsActive() {
		return dto.SurveySubmissionResponse{}, ErrSurveyNotActive
	}

	answers, err := s.buildAnswers(survey, req.Answers)
	if err != nil {
		return dto.SurveySubmissionResponse{}, err
	}

	submission := models.SurveySubmission{
		SurveyID:    surveyID,
		UserID:      userID,
		SubmittedAt: s.now(),
	}

	err = s.store.RunInTx(ctx, func(tx repository.SubmissionTx) error {
		locked, err := tx.LockSurvey(ctx, surveyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSurveyNotFound
			}
			return fmt.Errorf("lock survey: %w", err)
		}

		exists, err := tx.SubmissionExists(ctx, surveyID, userID)
		if err != nil {
			return fmt.Errorf("check submission: %w", err)
		}
		if exists {
			return ErrAlreadySubmitted
		}

		if !locked.IsActive() {
			return ErrSurveyNotActive
		}

		if err := tx.CreateSubmission(ctx, &submission); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySubmitted
			}
			return fmt.Errorf("insert submission: %w", err)
		}

		for i := range answers {
			answers[i].SubmissionID = submission.ID
			if err := tx.CreateAnswer(ctx, &answers[i]); err != nil {
				return fmt.Errorf("insert answer %d: %w", i, err)
			}
		}

		return nil
	})
	if err != nil {
		return dto.SurveySubmissionResponse{}, err
	}

	return dto.SurveySubmissionResponse{
		SubmissionID: submission.ID,
		SurveyID:     surveyID,
		AnswerCount:  len(answers),
		SubmittedAt:  submission.SubmittedAt,
	}, nil
}

// buildAnswers checks each answer against its question's declared type and
// returns the rows to insert. Unanswered questions are allowed.
func (s *surveySubmissionService) buildAnswers(survey models.Survey, input []dto.SurveyAnswerRequest) ([]models.SurveyAnswer, error) {
	questions := make(map[uint]models.SurveyQuestion, len(survey.Questions))
	optionOwner := map[uint]uint{}
	for _, question := range survey.Questions {
		questions[question.ID] = question
		for _, option := range question.Options {
			optionOwner[option.ID] = question.ID
		}
	}

	verr := &ValidationError{}
	perQuestion := map[uint]int{}
	chosen := map[[2]uint]bool{}
	answers := make([]models.SurveyAnswer, 0, len(input))

	for i, answer := range input {
		field := fmt.Sprintf("answers[%d]", i)
		question, ok := questions[answer.QuestionID]
		if !ok {
			verr.add(field+".question_id", "question %d does not belong to this survey", answer.QuestionID)
			continue
		}
		perQuestion[question.ID]++

		text := ""
		if answer.AnswerText != nil {
			text = strings.TrimSpace(s.sanitizer.Sanitize(*answer.AnswerText))
		}

		row := models.SurveyAnswer{QuestionID: question.ID}
		if question.IsFreeText() {
			if answer.OptionID != nil {
				verr.add(field+".option_id", "text questions do not accept options")
			}
			if text == "" {
				verr.add(field+".answer_text", "answer text is required")
			}
			row.AnswerText = &text
		} else {
			if text != "" {
				verr.add(field+".answer_text", "choice questions do not accept free text")
			}
			switch {
			case answer.OptionID == nil:
				verr.add(field+".option_id", "an option is required")
			case optionOwner[*answer.OptionID] != question.ID:
				verr.add(field+".option_id", "option %d does not belong to question %d", *answer.OptionID, question.ID)
			default:
				key := [2]uint{question.ID, *answer.OptionID}
				if chosen[key] {
					verr.add(field+".option_id", "option %d chosen twice", *answer.OptionID)
				}
				chosen[key] = true
				optionID := *answer.OptionID
				row.OptionID = &optionID
			}
		}

		answers = append(answers, row)
	}

	for _, question := range survey.Questions {
		if perQuestion[question.ID] > 1 && question.QuestionType != models.QuestionTypeMultipleChoice {
			verr.add("answers", "question %d accepts a single answer", question.ID)
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return answers, nil
}

func submissionOutcome(err error) string {
	var validationErr *ValidationError
	var fieldErrs validator.ValidationErrors
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, ErrSurveyNotFound):
		return "not_found"
	case errors.Is(err, ErrSurveyNotActive):
		return "not_active"
	case errors.As(err, &validationErr), errors.As(err, &fieldErrs):
		return "invalid"
	default:
		return "error"
	}
}
