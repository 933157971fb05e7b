package models

import "time"

const (
	// EventStatusDraft hides the event from students.
	EventStatusDraft = "draft"
	// EventStatusPublished makes the event visible and open for registration.
	EventStatusPublished = "published"
)

// Event is a scheduled campus activity students can register for.
type Event struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Title                string    `gorm:"size:255;not null" json:"title"`
	Description          string    `gorm:"type:text" json:"description"`
	Location             string    `gorm:"size:255" json:"location"`
	StartTime            time.Time `gorm:"not null;index" json:"start_time"`
	EndTime              time.Time `gorm:"not null" json:"end_time"`
	RegistrationDeadline time.Time `gorm:"not null" json:"registration_deadline"`
	MaxAttendees         *int      `json:"max_attendees"`
	OrganizerID          uint      `gorm:"not null;index" json:"organizer_id"`
	Organizer            User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	TermsConditions      string    `gorm:"type:text" json:"terms_conditions"`
	CoverImageURL        string    `gorm:"size:512" json:"cover_image_url"`
	Status               string    `gorm:"size:32;not null;default:'published'" json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// IsPublished reports whether students can see the event.
func (e Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

// RegistrationClosed returns true once the reference time is past the deadline.
func (e Event) RegistrationClosed(reference time.Time) bool {
	return reference.After(e.RegistrationDeadline)
}

// HasCapacityLimit reports whether the event caps its attendees. Null and
// non-positive values mean unlimited.
func (e Event) HasCapacityLimit() bool {
	return e.MaxAttendees != nil && *e.MaxAttendees > 0
}

// IsFullWith reports whether count registrations exhaust the capacity.
func (e Event) IsFullWith(count int64) bool {
	return e.HasCapacityLimit() && count >= int64(*e.MaxAttendees)
}

// EventRegistration is the committed fact that a user holds a seat.
type EventRegistration struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	EventID          uint      `gorm:"not null;uniqueIndex:idx_event_registrations_event_user" json:"event_id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_event_registrations_event_user;index" json:"user_id"`
	RegistrationTime time.Time `gorm:"autoCreateTime" json:"registration_time"`
	Event            Event     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User             User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
