package dto

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// SurveyCreateRequest creates a survey with its questions and options.
type SurveyCreateRequest struct {
	Title       string                  `json:"title" validate:"required,min=3,max=255"`
	Description string                  `json:"description" validate:"omitempty,max=10000"`
	Status      string                  `json:"status" validate:"omitempty,oneof=draft active closed"`
	Questions   []SurveyQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// SurveyQuestionRequest is one question of a new survey.
type SurveyQuestionRequest struct {
	QuestionText string   `json:"question_text" validate:"required,max=2000"`
	QuestionType string   `json:"question_type" validate:"required,oneof=text single_choice multiple_choice"`
	Options      []string `json:"options" validate:"omitempty,dive,required,max=512"`
}

// SurveySummaryResponse is an admin listing row.
type SurveySummaryResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	CreatorID       uint      `json:"creator_id"`
	CreatorName     string    `json:"creator_name"`
	SubmissionCount int64     `json:"submission_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewSurveySummaryResponse converts a listing row.
func NewSurveySummaryResponse(row repository.SurveyWithStats) SurveySummaryResponse {
	return SurveySummaryResponse{
		ID:              row.ID,
		Title:           row.Title,
		Description:     row.Description,
		Status:          row.Status,
		CreatorID:       row.CreatorID,
		CreatorName:     row.CreatorName,
		SubmissionCount: row.SubmissionCount,
		CreatedAt:       row.CreatedAt,
	}
}

// QuestionOptionResponse is a selectable option.
type QuestionOptionResponse struct {
	ID         uint   `json:"id"`
	OptionText string `json:"option_text"`
}

// SurveyQuestionResponse is a question with its options. Text questions
// carry no options.
type SurveyQuestionResponse struct {
	ID           uint                     `json:"id"`
	QuestionText string                   `json:"question_text"`
	QuestionType string                   `json:"question_type"`
	Options      []QuestionOptionResponse `json:"options,omitempty"`
}

// SurveyDetailResponse is a survey with its ordered questions.
type SurveyDetailResponse struct {
	ID          uint                     `json:"id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Status      string                   `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	Questions   []SurveyQuestionResponse `json:"questions"`
}

// NewSurveyDetailResponse converts a survey with preloaded questions.
func NewSurveyDetailResponse(survey models.Survey) SurveyDetailResponse {
	questions := make([]SurveyQuestionResponse, 0, len(survey.Questions))
	for _, question := range survey.Questions {
		item := SurveyQuestionResponse{
			ID:           question.ID,
			QuestionText: question.QuestionText,
			QuestionType: question.QuestionType,
		}
		if !question.IsFreeText() {
			item.Options = make([]QuestionOptionResponse, 0, len(question.Options))
			for _, option := range question.Options {
				item.Options = append(item.Options, QuestionOptionResponse{ID: option.ID, OptionText: option.OptionText})
			}
		}
		questions = append(questions, item)
	}

	return SurveyDetailResponse{
		ID:          survey.ID,
		Title:       survey.Title,
		Description: survey.Description,
		Status:      survey.Status,
		CreatedAt:   survey.CreatedAt,
		Questions:   questions,
	}
}

// SurveySubmitRequest carries a student's answers.
type SurveySubmitRequest struct {
	Answers []SurveyAnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

// SurveyAnswerRequest answers one question with either an option or text.
type SurveyAnswerRequest struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	OptionID   *uint   `json:"option_id"`
	AnswerText *string `json:"answer_text" validate:"omitempty,max=5000"`
}

// SurveySubmissionResponse confirms a recorded submission.
type SurveySubmissionResponse struct {
	SubmissionID uint      `json:"submission_id"`
	SurveyID     uint      `json:"survey_id"`
	AnswerCount  int       `json:"answer_count"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
