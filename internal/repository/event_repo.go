package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// EventFilter narrows event listings.
type EventFilter struct {
	PublishedOnly bool
	// ViewerID, when set, fills IsRegistered for that user.
	ViewerID *uint
	Limit    int
}

// EventWithStats is an event row enriched with registration aggregates.
type EventWithStats struct {
	models.Event
	OrganizerName   string `json:"organizer_name"`
	RegisteredCount int64  `json:"registered_count"`
	IsRegistered    bool   `json:"is_registered"`
}

// EventRegistrant is a user registered for an event.
type EventRegistrant struct {
	UserID           uint      `json:"id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	AcademicYear     string    `json:"academic_year"`
	RegistrationTime time.Time `json:"registration_time"`
}

// UserEventActivity is one of a user's registrations joined with the event.
type UserEventActivity struct {
	EventID          uint      `json:"event_id"`
	Title            string    `json:"title"`
	StartTime        time.Time `json:"start_time"`
	RegistrationTime time.Time `json:"registration_time"`
}

// EventRepository defines persistence operations for events.
type EventRepository interface {
	List(ctx context.Context, filter EventFilter) ([]EventWithStats, error)
	GetByID(ctx context.Context, id uint) (models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Event, error)
	ListRegistrants(ctx context.Context, eventID uint) ([]EventRegistrant, error)
	ListUserRegistrations(ctx context.Context, userID uint, limit int) ([]UserEventActivity, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository instantiates a GORM-backed repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]EventWithStats, error) {
	viewer := uint(0)
	if filter.ViewerID != nil {
		viewer = *filter.ViewerID
	}

	query := r.db.WithContext(ctx).Model(&models.Event{}).
		Select(`events.*, users.full_name AS organizer_name,
			(SELECT COUNT(*) FROM event_registrations er WHERE er.event_id = events.id) AS registered_count,
			EXISTS (SELECT 1 FROM event_registrations er WHERE er.event_id = events.id AND er.user_id = ?) AS is_registered`, viewer).
		Joins("JOIN users ON users.id = events.organizer_id")

	if filter.PublishedOnly {
		query = query.Where("events.status = ?", models.EventStatusPublished)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []EventWithStats
	if err := query.Order("events.start_time DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return models.Event{}, err
	}

	return event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Event, error) {
	result := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Event{}, result.Error
	}

	return r.GetByID(ctx, id)
}

func (r *eventRepository) ListRegistrants(ctx context.Context, eventID uint) ([]EventRegistrant, error) {
	var rows []EventRegistrant
	err := r.db.WithContext(ctx).Table("event_registrations AS er").
		Select("u.id AS user_id, u.full_name, u.email, u.academic_year, er.registration_time").
		Joins("JOIN users u ON er.user_id = u.id").
		Where("er.event_id = ?", eventID).
		Order("er.registration_time ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *eventRepository) ListUserRegistrations(ctx context.Context, userID uint, limit int) ([]UserEventActivity, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []UserEventActivity
	err := r.db.WithContext(ctx).Table("event_registrations AS er").
		Select("e.id AS event_id, e.title, e.start_time, er.registration_time").
		Joins("JOIN events e ON er.event_id = e.id").
		Where("er.user_id = ?", userID).
		Order("e.start_time DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
