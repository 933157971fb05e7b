package dto

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// ComplaintCreateRequest is filed by a student.
type ComplaintCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Category    string  `json:"category" validate:"required,max=64"`
	Description string  `json:"description" validate:"required,max=10000"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
}

// ComplaintResponseRequest is a staff reply.
type ComplaintResponseRequest struct {
	Message string `json:"message" validate:"required,max=10000"`
}

// ComplaintStatusRequest moves a complaint through its workflow.
type ComplaintStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=received under_review pending_student_response action_taken closed"`
}

// ComplaintReplyResponse serialises a staff reply.
type ComplaintReplyResponse struct {
	ID            uint      `json:"id"`
	ResponderID   uint      `json:"responder_id"`
	ResponderName string    `json:"responder_name"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// ComplaintResponse serialises a complaint, with replies on detail views.
type ComplaintResponse struct {
	ID          uint                     `json:"id"`
	UserID      uint                     `json:"user_id"`
	StudentName string                   `json:"student_name,omitempty"`
	Title       string                   `json:"title"`
	Category    string                   `json:"category"`
	Description string                   `json:"description"`
	PhoneNumber *string                  `json:"phone_number,omitempty"`
	Status      string                   `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	Responses   []ComplaintReplyResponse `json:"responses,omitempty"`
}

// NewComplaintResponse converts a complaint with preloaded replies.
func NewComplaintResponse(complaint models.Complaint) ComplaintResponse {
	response := ComplaintResponse{
		ID:          complaint.ID,
		UserID:      complaint.UserID,
		StudentName: complaint.User.FullName,
		Title:       complaint.Title,
		Category:    complaint.Category,
		Description: complaint.Description,
		PhoneNumber: complaint.PhoneNumber,
		Status:      complaint.Status,
		CreatedAt:   complaint.CreatedAt,
	}

	for _, reply := range complaint.Responses {
		response.Responses = append(response.Responses, ComplaintReplyResponse{
			ID:            reply.ID,
			ResponderID:   reply.ResponderID,
			ResponderName: reply.Responder.FullName,
			Message:       reply.Message,
			CreatedAt:     reply.CreatedAt,
		})
	}
	return response
}

// NewComplaintSummaryResponse converts a listing row.
func NewComplaintSummaryResponse(row repository.ComplaintSummary) ComplaintResponse {
	response := NewComplaintResponse(row.Complaint)
	response.StudentName = row.StudentName
	return response
}
