package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/database"
	"github.com/noah-isme/campus-portal-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) models.User {
	t.Helper()

	hash, err := auth.HashPassword("secret-password")
	require.NoError(t, err)

	user := models.User{
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		Username:     username,
		Email:        username + "@campus.test",
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedEvent(t *testing.T, db *gorm.DB, organizer models.User, mutate func(*models.Event)) models.Event {
	t.Helper()

	start := time.Date(2030, time.March, 10, 9, 0, 0, 0, time.UTC)
	event := models.Event{
		Title:                "Orientation Day",
		Description:          "Welcome session for new students",
		Location:             "Main Hall",
		StartTime:            start,
		EndTime:              start.Add(3 * time.Hour),
		RegistrationDeadline: start.Add(-24 * time.Hour),
		OrganizerID:          organizer.ID,
		Status:               models.EventStatusPublished,
	}
	if mutate != nil {
		mutate(&event)
	}
	require.NoError(t, db.Omit("Organizer").Create(&event).Error)
	return event
}

func intPtr(v int) *int { return &v }

func stringPtr(v string) *string { return &v }

type publishedMessage struct {
	subject string
	payload interface{}
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{subject: subject, payload: payload})
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	subjects := make([]string, 0, len(p.messages))
	for _, message := range p.messages {
		subjects = append(subjects, message.subject)
	}
	return subjects
}

type stubActivityRecorder struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (s *stubActivityRecorder) Record(_ context.Context, entry ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubActivityRecorder) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func identityOf(user models.User) auth.Identity {
	return auth.Identity{UserID: user.ID, Role: user.Role, FullName: user.FullName}
}
