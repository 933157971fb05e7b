package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/messaging"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/observability"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// RegistrationService admits users to events.
type RegistrationService interface {
	// Register claims a seat for userID. The event row stays locked from the
	// first read until commit, so the capacity check and insert cannot race.
	// Violations are reported in a fixed order: ErrEventNotFound,
	// ErrRegistrationClosed, ErrAlreadyRegistered, ErrEventFull.
	Register(ctx context.Context, eventID, userID uint) (dto.RegistrationResponse, error)
}

type registrationService struct {
	store     repository.AdmissionStore
	publisher messaging.Publisher
	logger    zerolog.Logger
	now       func() time.Time
	tracer    trace.Tracer
}

// NewRegistrationService constructs the admission controller.
func NewRegistrationService(store repository.AdmissionStore, publisher messaging.Publisher, logger zerolog.Logger) RegistrationService {
	if publisher == nil {
		publisher = messaging.Discard{}
	}

	return &registrationService{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "registration_service").Logger(),
		now:       time.Now,
		tracer:    otel.Tracer("github.com/noah-isme/campus-portal-api/internal/service/registration"),
	}
}

func (s *registrationService) Register(ctx context.Context, eventID, userID uint) (dto.RegistrationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "registration.register")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("event.id", int64(eventID)),
		attribute.Int64("user.id", int64(userID)),
	)

	if eventID == 0 {
		return dto.RegistrationResponse{}, newValidationError("event_id", "event id is required")
	}
	if userID == 0 {
		return dto.RegistrationResponse{}, newValidationError("user_id", "user id is required")
	}

	now := s.now()
	var registration models.EventRegistration

	err := s.store.RunInTx(ctx, func(tx repository.AdmissionTx) error {
		event, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("lock event: %w", err)
		}
		if !event.IsPublished() {
			return ErrEventNotFound
		}

		if event.RegistrationClosed(now) {
			return ErrRegistrationClosed
		}

		exists, err := tx.RegistrationExists(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("check registration: %w", err)
		}
		if exists {
			return ErrAlreadyRegistered
		}

		count, err := tx.CountRegistrations(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if event.IsFullWith(count) {
			return ErrEventFull
		}

		registration = models.EventRegistration{
			EventID:          eventID,
			UserID:           userID,
			RegistrationTime: now,
		}
		if err := tx.CreateRegistration(ctx, &registration); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("insert registration: %w", err)
		}

		return nil
	})

	outcome := registrationOutcome(err)
	observability.RegistrationOutcomes().WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("registration.outcome", outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if outcome == "error" {
			s.logger.Error().Err(err).Uint("event_id", eventID).Uint("user_id", userID).Msg("event registration failed")
		} else {
			s.logger.Info().Uint("event_id", eventID).Uint("user_id", userID).Str("outcome", outcome).Msg("event registration rejected")
		}
		return dto.RegistrationResponse{}, err
	}

	response := dto.NewRegistrationResponse(registration)
	if pubErr := s.publisher.Publish(ctx, messaging.SubjectRegistrationConfirmed, response); pubErr != nil {
		s.logger.Warn().Err(pubErr).Uint("event_id", eventID).Msg("failed to publish registration event")
	}

	s.logger.Info().Uint("event_id", eventID).Uint("user_id", userID).Msg("event registration confirmed")
	return response, nil
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrEventNotFound):
		return "not_found"
	case errors.Is(err, ErrRegistrationClosed):
		return "deadline_passed"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrEventFull):
		return "event_full"
	default:
		return "error"
	}
}
