package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// SubmissionTx is the view of the store available inside a survey
// submission transaction.
type SubmissionTx interface {
	// LockSurvey reads the survey row and holds an exclusive lock on it
	// until the transaction ends.
	LockSurvey(ctx context.Context, surveyID uint) (models.Survey, error)
	SubmissionExists(ctx context.Context, surveyID, userID uint) (bool, error)
	CreateSubmission(ctx context.Context, submission *models.SurveySubmission) error
	CreateAnswer(ctx context.Context, answer *models.SurveyAnswer) error
}

// SubmissionStore opens survey submission transactions.
type SubmissionStore interface {
	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(tx SubmissionTx) error) error
}

type submissionStore struct {
	db *gorm.DB
}

// NewSubmissionStore constructs the GORM backed submission store.
func NewSubmissionStore(db *gorm.DB) SubmissionStore {
	return &submissionStore{db: db}
}

func (s *submissionStore) RunInTx(ctx context.Context, fn func(tx SubmissionTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&submissionTx{db: tx})
	})
}

type submissionTx struct {
	db *gorm.DB
}

func (t *submissionTx) LockSurvey(ctx context.Context, surveyID uint) (models.Survey, error) {
	var survey models.Survey
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&survey, surveyID).Error
	if err != nil {
		return models.Survey{}, err
	}

	return survey, nil
}

func (t *submissionTx) SubmissionExists(ctx context.Context, surveyID, userID uint) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.SurveySubmission{}).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (t *submissionTx) CreateSubmission(ctx context.Context, submission *models.SurveySubmission) error {
	return t.db.WithContext(ctx).Omit("Survey", "Answers").Create(submission).Error
}

func (t *submissionTx) CreateAnswer(ctx context.Context, answer *models.SurveyAnswer) error {
	return t.db.WithContext(ctx).Create(answer).Error
}
