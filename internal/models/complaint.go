package models

import "time"

const (
	ComplaintStatusReceived               = "received"
	ComplaintStatusUnderReview            = "under_review"
	ComplaintStatusPendingStudentResponse = "pending_student_response"
	ComplaintStatusActionTaken            = "action_taken"
	ComplaintStatusClosed                 = "closed"
)

// Complaint is filed by a student and handled by moderators.
type Complaint struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	UserID      uint                `gorm:"not null;index" json:"user_id"`
	User        User                `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Title       string              `gorm:"size:255;not null" json:"title"`
	Category    string              `gorm:"size:64;not null" json:"category"`
	Description string              `gorm:"type:text;not null" json:"description"`
	PhoneNumber *string             `gorm:"size:32" json:"phone_number"`
	Status      string              `gorm:"size:32;not null;default:'received';index" json:"status"`
	Responses   []ComplaintResponse `gorm:"constraint:OnDelete:CASCADE" json:"responses,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ComplaintResponse is a staff reply attached to a complaint.
type ComplaintResponse struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"not null;index" json:"complaint_id"`
	ResponderID uint      `gorm:"not null" json:"responder_id"`
	Responder   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
