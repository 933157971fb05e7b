package dto

import (
	"mime/multipart"
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// EventCreateRequest is the admin payload for a new event.
type EventCreateRequest struct {
	Title                string    `json:"title" validate:"required,min=3,max=255"`
	Description          string    `json:"description" validate:"omitempty,max=10000"`
	Location             string    `json:"location" validate:"omitempty,max=255"`
	StartTime            time.Time `json:"start_time" validate:"required"`
	EndTime              time.Time `json:"end_time" validate:"required,gtefield=StartTime"`
	RegistrationDeadline time.Time `json:"registration_deadline" validate:"required,ltefield=StartTime"`
	MaxAttendees         *int      `json:"max_attendees" validate:"omitempty,gte=0"`
	TermsConditions      string    `json:"terms_conditions" validate:"omitempty,max=10000"`
	CoverImageURL        string    `json:"cover_image_url" validate:"omitempty,url,max=512"`
	Status               string    `json:"status" validate:"omitempty,oneof=draft published"`

	// CoverImageUpload replaces CoverImageURL when the request carries a
	// cover_image_upload part.
	CoverImageUpload *multipart.FileHeader `json:"-" validate:"-"`
}

// EventUpdateRequest captures partial admin edits.
type EventUpdateRequest struct {
	Title                *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description          *string    `json:"description" validate:"omitempty,max=10000"`
	Location             *string    `json:"location" validate:"omitempty,max=255"`
	StartTime            *time.Time `json:"start_time"`
	EndTime              *time.Time `json:"end_time"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	MaxAttendees         *int       `json:"max_attendees" validate:"omitempty,gte=0"`
	ClearMaxAttendees    bool       `json:"clear_max_attendees"`
	TermsConditions      *string    `json:"terms_conditions" validate:"omitempty,max=10000"`
	CoverImageURL        *string    `json:"cover_image_url" validate:"omitempty,url,max=512"`
	Status               *string    `json:"status" validate:"omitempty,oneof=draft published"`

	CoverImageUpload *multipart.FileHeader `json:"-" validate:"-"`
}

// EventResponse serialises an event with its registration aggregates.
type EventResponse struct {
	ID                   uint      `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Location             string    `json:"location"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	MaxAttendees         *int      `json:"max_attendees"`
	OrganizerID          uint      `json:"organizer_id"`
	OrganizerName        string    `json:"organizer_name,omitempty"`
	TermsConditions      string    `json:"terms_conditions,omitempty"`
	CoverImageURL        string    `json:"cover_image_url,omitempty"`
	Status               string    `json:"status"`
	RegisteredCount      int64     `json:"registered_count"`
	IsRegistered         bool      `json:"is_registered"`
	CreatedAt            time.Time `json:"created_at"`
}

// NewEventResponse converts an event model.
func NewEventResponse(event models.Event) EventResponse {
	return EventResponse{
		ID:                   event.ID,
		Title:                event.Title,
		Description:          event.Description,
		Location:             event.Location,
		StartTime:            event.StartTime,
		EndTime:              event.EndTime,
		RegistrationDeadline: event.RegistrationDeadline,
		MaxAttendees:         event.MaxAttendees,
		OrganizerID:          event.OrganizerID,
		TermsConditions:      event.TermsConditions,
		CoverImageURL:        event.CoverImageURL,
		Status:               event.Status,
		CreatedAt:            event.CreatedAt,
	}
}

// NewEventResponseWithStats converts a listing row.
func NewEventResponseWithStats(row repository.EventWithStats) EventResponse {
	response := NewEventResponse(row.Event)
	response.OrganizerName = row.OrganizerName
	response.RegisteredCount = row.RegisteredCount
	response.IsRegistered = row.IsRegistered
	return response
}

// EventRegistrantsResponse lists who registered for an event.
type EventRegistrantsResponse struct {
	Event       EventResponse                `json:"event"`
	Registrants []repository.EventRegistrant `json:"registrants"`
}

// RegistrationResponse confirms an admitted registration.
type RegistrationResponse struct {
	ID           uint      `json:"id"`
	EventID      uint      `json:"event_id"`
	UserID       uint      `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewRegistrationResponse converts a committed registration.
func NewRegistrationResponse(registration models.EventRegistration) RegistrationResponse {
	return RegistrationResponse{
		ID:           registration.ID,
		EventID:      registration.EventID,
		UserID:       registration.UserID,
		RegisteredAt: registration.RegistrationTime,
	}
}
