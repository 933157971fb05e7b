package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// SurveyWithStats is a survey row with its creator and submission count.
type SurveyWithStats struct {
	models.Survey
	CreatorName     string `json:"creator_name"`
	SubmissionCount int64  `json:"submission_count"`
}

// StudentSurvey is an active survey annotated for the viewing student.
type StudentSurvey struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	HasSubmitted bool      `json:"has_submitted"`
}

// UserSurveyActivity is one of a user's submissions joined with the survey.
type UserSurveyActivity struct {
	SurveyID    uint      `json:"survey_id"`
	Title       string    `json:"title"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SurveyRepository defines persistence for surveys and their questions.
type SurveyRepository interface {
	List(ctx context.Context) ([]SurveyWithStats, error)
	ListActiveForUser(ctx context.Context, userID uint, limit int) ([]StudentSurvey, error)
	GetWithQuestions(ctx context.Context, id uint) (models.Survey, error)
	// CreateWithQuestions stores the survey, its questions and their
	// options in one transaction.
	CreateWithQuestions(ctx context.Context, survey *models.Survey) error
	HasSubmitted(ctx context.Context, surveyID, userID uint) (bool, error)
	ListUserSubmissions(ctx context.Context, userID uint, limit int) ([]UserSurveyActivity, error)
}

type surveyRepository struct {
	db *gorm.DB
}

// NewSurveyRepository constructs the survey repository.
func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

func (r *surveyRepository) List(ctx context.Context) ([]SurveyWithStats, error) {
	var rows []SurveyWithStats
	err := r.db.WithContext(ctx).Model(&models.Survey{}).
		Select(`surveys.*, users.full_name AS creator_name,
			(SELECT COUNT(*) FROM survey_submissions ss WHERE ss.survey_id = surveys.id) AS submission_count`).
		Joins("JOIN users ON users.id = surveys.creator_id").
		Order("surveys.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *surveyRepository) ListActiveForUser(ctx context.Context, userID uint, limit int) ([]StudentSurvey, error) {
	query := r.db.WithContext(ctx).Model(&models.Survey{}).
		Select(`surveys.id, surveys.title, surveys.description, surveys.created_at,
			EXISTS (SELECT 1 FROM survey_submissions ss WHERE ss.survey_id = surveys.id AND ss.user_id = ?) AS has_submitted`, userID).
		Where("surveys.status = ?", models.SurveyStatusActive).
		Order("surveys.created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []StudentSurvey
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *surveyRepository) GetWithQuestions(ctx context.Context, id uint) (models.Survey, error) {
	var survey models.Survey
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("survey_questions.position ASC, survey_questions.id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.id ASC")
		}).
		First(&survey, id).Error
	if err != nil {
		return models.Survey{}, err
	}

	return survey, nil
}

func (r *surveyRepository) CreateWithQuestions(ctx context.Context, survey *models.Survey) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions := survey.Questions
		survey.Questions = nil

		if err := tx.Omit("Creator").Create(survey).Error; err != nil {
			return err
		}

		for i := range questions {
			question := &questions[i]
			question.SurveyID = survey.ID
			options := question.Options
			question.Options = nil

			if err := tx.Create(question).Error; err != nil {
				return err
			}

			for j := range options {
				options[j].QuestionID = question.ID
				if err := tx.Create(&options[j]).Error; err != nil {
					return err
				}
			}
			question.Options = options
		}

		survey.Questions = questions
		return nil
	})
}

func (r *surveyRepository) HasSubmitted(ctx context.Context, surveyID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SurveySubmission{}).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *surveyRepository) ListUserSubmissions(ctx context.Context, userID uint, limit int) ([]UserSurveyActivity, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []UserSurveyActivity
	err := r.db.WithContext(ctx).Table("survey_submissions AS ss").
		Select("s.id AS survey_id, s.title, ss.submitted_at").
		Joins("JOIN surveys s ON ss.survey_id = s.id").
		Where("ss.user_id = ?", userID).
		Order("ss.submitted_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
