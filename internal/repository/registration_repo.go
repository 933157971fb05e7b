package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// AdmissionTx is the view of the store available inside a registration
// transaction. Every call runs on the same transaction.
type AdmissionTx interface {
	// LockEvent reads the event row and holds an exclusive lock on it
	// until the transaction ends.
	LockEvent(ctx context.Context, eventID uint) (models.Event, error)
	RegistrationExists(ctx context.Context, eventID, userID uint) (bool, error)
	CountRegistrations(ctx context.Context, eventID uint) (int64, error)
	CreateRegistration(ctx context.Context, registration *models.EventRegistration) error
}

// AdmissionStore opens registration transactions.
type AdmissionStore interface {
	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(tx AdmissionTx) error) error
}

type admissionStore struct {
	db *gorm.DB
}

// NewAdmissionStore constructs the GORM backed admission store.
func NewAdmissionStore(db *gorm.DB) AdmissionStore {
	return &admissionStore{db: db}
}

func (s *admissionStore) RunInTx(ctx context.Context, fn func(tx AdmissionTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&admissionTx{db: tx})
	})
}

type admissionTx struct {
	db *gorm.DB
}

func (t *admissionTx) LockEvent(ctx context.Context, eventID uint) (models.Event, error) {
	var event models.Event
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, eventID).Error
	if err != nil {
		return models.Event{}, err
	}

	return event, nil
}

func (t *admissionTx) RegistrationExists(ctx context.Context, eventID, userID uint) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (t *admissionTx) CountRegistrations(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (t *admissionTx) CreateRegistration(ctx context.Context, registration *models.EventRegistration) error {
	return t.db.WithContext(ctx).Create(registration).Error
}
