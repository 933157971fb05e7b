package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/messaging"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/observability"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

var registrationClock = time.Date(2030, time.January, 15, 12, 0, 0, 0, time.UTC)

func setupRegistrationService(t *testing.T, db *gorm.DB) (*registrationService, *recordingPublisher) {
	t.Helper()

	publisher := &recordingPublisher{}
	svc := NewRegistrationService(repository.NewAdmissionStore(db), publisher, zerolog.Nop()).(*registrationService)
	svc.now = func() time.Time { return registrationClock }
	return svc, publisher
}

func countRegistrations(t *testing.T, db *gorm.DB, eventID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.EventRegistration{}).Where("event_id = ?", eventID).Count(&count).Error)
	return count
}

func TestRegisterConfirmsAndPublishes(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	student := seedUser(t, db, "alice", models.RoleStudent)
	event := seedEvent(t, db, admin, func(e *models.Event) { e.MaxAttendees = intPtr(10) })

	svc, publisher := setupRegistrationService(t, db)
	before := testutil.ToFloat64(observability.RegistrationOutcomes().WithLabelValues("confirmed"))

	resp, err := svc.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)
	require.NotZero(t, resp.ID)
	require.Equal(t, event.ID, resp.EventID)
	require.Equal(t, student.ID, resp.UserID)
	require.True(t, resp.RegisteredAt.Equal(registrationClock))

	require.EqualValues(t, 1, countRegistrations(t, db, event.ID))
	require.Equal(t, []string{messaging.SubjectRegistrationConfirmed}, publisher.subjects())
	require.Equal(t, before+1, testutil.ToFloat64(observability.RegistrationOutcomes().WithLabelValues("confirmed")))
}

func TestRegisterLastSeatRace(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	userA := seedUser(t, db, "usera", models.RoleStudent)
	userB := seedUser(t, db, "userb", models.RoleStudent)
	event := seedEvent(t, db, admin, func(e *models.Event) { e.MaxAttendees = intPtr(1) })

	svc, _ := setupRegistrationService(t, db)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, user := range []models.User{userA, userB} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, results[i] = svc.Register(context.Background(), event.ID, userID)
		}(i, user.ID)
	}
	wg.Wait()

	var confirmed, full int
	for _, err := range results {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, ErrEventFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, confirmed)
	require.Equal(t, 1, full)
	require.EqualValues(t, 1, countRegistrations(t, db, event.ID))
}

func TestRegisterNeverExceedsCapacity(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	const seats, attempts = 5, 25
	event := seedEvent(t, db, admin, func(e *models.Event) { e.MaxAttendees = intPtr(seats) })

	users := make([]models.User, attempts)
	for i := range users {
		users[i] = seedUser(t, db, fmt.Sprintf("student%02d", i), models.RoleStudent)
	}

	svc, _ := setupRegistrationService(t, db)

	var confirmed, full, other int64
	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), event.ID, userID)
			switch {
			case err == nil:
				atomic.AddInt64(&confirmed, 1)
			case errors.Is(err, ErrEventFull):
				atomic.AddInt64(&full, 1)
			default:
				atomic.AddInt64(&other, 1)
			}
		}(user.ID)
	}
	wg.Wait()

	require.EqualValues(t, seats, confirmed)
	require.EqualValues(t, attempts-seats, full)
	require.Zero(t, other)
	require.EqualValues(t, seats, countRegistrations(t, db, event.ID))
}

func TestRegisterSameUserConcurrentlyHoldsOneSeat(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	student := seedUser(t, db, "alice", models.RoleStudent)
	event := seedEvent(t, db, admin, nil)

	svc, _ := setupRegistrationService(t, db)

	var confirmed, duplicate int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), event.ID, student.ID)
			if err == nil {
				atomic.AddInt64(&confirmed, 1)
			} else if errors.Is(err, ErrAlreadyRegistered) {
				atomic.AddInt64(&duplicate, 1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, confirmed)
	require.EqualValues(t, 7, duplicate)
	require.EqualValues(t, 1, countRegistrations(t, db, event.ID))
}

func TestRegisterAfterDeadline(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	student := seedUser(t, db, "alice", models.RoleStudent)
	event := seedEvent(t, db, admin, func(e *models.Event) {
		e.RegistrationDeadline = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		e.StartTime = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
		e.EndTime = e.StartTime.Add(time.Hour)
	})

	svc, publisher := setupRegistrationService(t, db)
	svc.now = func() time.Time { return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Register(context.Background(), event.ID, student.ID)
	require.ErrorIs(t, err, ErrRegistrationClosed)
	require.Zero(t, countRegistrations(t, db, event.ID))
	require.Empty(t, publisher.subjects())
}

func TestRegisterDeadlineReportedBeforeDuplicateAndCapacity(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	student := seedUser(t, db, "alice", models.RoleStudent)
	event := seedEvent(t, db, admin, func(e *models.Event) { e.MaxAttendees = intPtr(1) })

	svc, _ := setupRegistrationService(t, db)
	_, err := svc.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return event.RegistrationDeadline.Add(time.Minute) }
	_, err = svc.Register(context.Background(), event.ID, student.ID)
	require.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterTwiceIsAlreadyRegistered(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	student := seedUser(t, db, "alice", models.RoleStudent)
	event := seedEvent(t, db, admin, func(e *models.Event) { e.MaxAttendees = intPtr(1) })

	svc, _ := setupRegistrationService(t, db)
	_, err := svc.Register(context.Background(), event.ID, student.ID)
	require.NoError(t, err)

	// The event is now full too; the duplicate is reported first.
	_, err = svc.Register(context.Background(), event.ID, student.ID)
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	require.EqualValues(t, 1, countRegistrations(t, db, event.ID))
}

func TestRegisterUnknownOrDraftEventIsNotFound(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	student := seedUser(t, db, "alice", models.RoleStudent)
	draft := seedEvent(t, db, admin, func(e *models.Event) { e.Status = models.EventStatusDraft })

	svc, _ := setupRegistrationService(t, db)

	_, err := svc.Register(context.Background(), 9999, student.ID)
	require.ErrorIs(t, err, ErrEventNotFound)

	_, err = svc.Register(context.Background(), draft.ID, student.ID)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegisterUnlimitedCapacity(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	event := seedEvent(t, db, admin, func(e *models.Event) { e.MaxAttendees = intPtr(0) })

	svc, _ := setupRegistrationService(t, db)
	for i := 0; i < 3; i++ {
		student := seedUser(t, db, fmt.Sprintf("student%d", i), models.RoleStudent)
		_, err := svc.Register(context.Background(), event.ID, student.ID)
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, countRegistrations(t, db, event.ID))
}

func TestRegisterRejectsMissingIdentifiers(t *testing.T) {
	db := newTestDB(t)
	svc, _ := setupRegistrationService(t, db)

	_, err := svc.Register(context.Background(), 0, 1)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "event_id", verr.Fields[0].Field)
}
