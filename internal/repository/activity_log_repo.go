package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// ActivityLogFilter narrows audit trail queries.
type ActivityLogFilter struct {
	Page       int
	PageSize   int
	ActorID    *uint
	Action     string
	EntityType string
	EntityID   *uint
}

// ActivityEntry is an audit row joined with the actor's display name.
type ActivityEntry struct {
	models.ActivityLog
	ActorName string `json:"actor_name"`
}

// ActivityLogRepository persists staff audit entries.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]ActivityEntry, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]ActivityEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})

	if filter.ActorID != nil {
		query = query.Where("activity_logs.actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("activity_logs.action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("activity_logs.entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("activity_logs.entity_id = ?", *filter.EntityID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entries []ActivityEntry
	err := query.
		Select("activity_logs.*, COALESCE(users.full_name, '') AS actor_name").
		Joins("LEFT JOIN users ON users.id = activity_logs.actor_id").
		Order("activity_logs.created_at DESC, activity_logs.id DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
