package models

import "time"

const (
	SurveyStatusDraft  = "draft"
	SurveyStatusActive = "active"
	SurveyStatusClosed = "closed"
)

const (
	QuestionTypeText           = "text"
	QuestionTypeSingleChoice   = "single_choice"
	QuestionTypeMultipleChoice = "multiple_choice"
)

// Survey owns an ordered list of questions.
type Survey struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Status      string           `gorm:"size:32;not null;default:'draft';index" json:"status"`
	CreatorID   uint             `gorm:"not null" json:"creator_id"`
	Creator     User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Questions   []SurveyQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsActive reports whether the survey accepts submissions.
func (s Survey) IsActive() bool {
	return s.Status == SurveyStatusActive
}

// SurveyQuestion belongs to a survey; choice questions own options.
type SurveyQuestion struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	SurveyID     uint             `gorm:"not null;index" json:"survey_id"`
	Position     int              `gorm:"not null;default:0" json:"position"`
	QuestionText string           `gorm:"type:text;not null" json:"question_text"`
	QuestionType string           `gorm:"size:32;not null" json:"question_type"`
	Options      []QuestionOption `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

// IsFreeText reports whether answers carry text instead of an option.
func (q SurveyQuestion) IsFreeText() bool {
	return q.QuestionType == QuestionTypeText
}

// QuestionOption is a selectable choice of a question.
type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	OptionText string `gorm:"size:512;not null" json:"option_text"`
}

// SurveySubmission is the header row of one user's answers to a survey.
type SurveySubmission struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SurveyID    uint           `gorm:"not null;uniqueIndex:idx_survey_submissions_survey_user" json:"survey_id"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_survey_submissions_survey_user;index" json:"user_id"`
	SubmittedAt time.Time      `gorm:"autoCreateTime" json:"submitted_at"`
	Survey      Survey         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Answers     []SurveyAnswer `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// SurveyAnswer carries either a chosen option or free text for a question.
type SurveyAnswer struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	SubmissionID uint    `gorm:"not null;index" json:"submission_id"`
	QuestionID   uint    `gorm:"not null;index" json:"question_id"`
	OptionID     *uint   `json:"option_id"`
	AnswerText   *string `gorm:"type:text" json:"answer_text"`
}
