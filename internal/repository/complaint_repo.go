package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// ComplaintSummary is a complaint row with the filer's name.
type ComplaintSummary struct {
	models.Complaint
	StudentName string `json:"student_name"`
}

// UserComplaintActivity is a compact view of one of a user's complaints.
type UserComplaintActivity struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ComplaintRepository persists complaints and staff responses.
type ComplaintRepository interface {
	List(ctx context.Context) ([]ComplaintSummary, error)
	GetWithResponses(ctx context.Context, id uint) (models.Complaint, error)
	Create(ctx context.Context, complaint *models.Complaint) error
	AddResponse(ctx context.Context, response *models.ComplaintResponse) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]UserComplaintActivity, error)
}

type complaintRepository struct {
	db *gorm.DB
}

// NewComplaintRepository constructs the complaint repository.
func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

func (r *complaintRepository) List(ctx context.Context) ([]ComplaintSummary, error) {
	var rows []ComplaintSummary
	err := r.db.WithContext(ctx).Model(&models.Complaint{}).
		Select("complaints.*, users.full_name AS student_name").
		Joins("JOIN users ON users.id = complaints.user_id").
		Order("complaints.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *complaintRepository) GetWithResponses(ctx context.Context, id uint) (models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("complaint_responses.created_at ASC")
		}).
		Preload("Responses.Responder").
		First(&complaint, id).Error
	if err != nil {
		return models.Complaint{}, err
	}

	return complaint, nil
}

func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Omit("User", "Responses").Create(complaint).Error
}

func (r *complaintRepository) AddResponse(ctx context.Context, response *models.ComplaintResponse) error {
	return r.db.WithContext(ctx).Omit("Responder").Create(response).Error
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Complaint{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *complaintRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]UserComplaintActivity, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []UserComplaintActivity
	err := r.db.WithContext(ctx).Model(&models.Complaint{}).
		Select("id, title, status, created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
