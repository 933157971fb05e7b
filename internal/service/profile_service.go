package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

const profileActivityLimit = 5

// ProfileService serves the caller's own account.
type ProfileService interface {
	Me(ctx context.Context, userID uint) (dto.ProfileResponse, error)
	ChangePassword(ctx context.Context, userID uint, req dto.PasswordChangeRequest) error
	UpdatePicture(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error)
}

type profileService struct {
	users      repository.UserRepository
	events     repository.EventRepository
	complaints repository.ComplaintRepository
	surveys    repository.SurveyRepository
	images     *ImageUploader
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(users repository.UserRepository, events repository.EventRepository, complaints repository.ComplaintRepository, surveys repository.SurveyRepository, images *ImageUploader, validate *validator.Validate, logger zerolog.Logger) ProfileService {
	return &profileService{
		users:      users,
		events:     events,
		complaints: complaints,
		surveys:    surveys,
		images:     images,
		validator:  validate,
		logger:     logger.With().Str("component", "profile_service").Logger(),
	}
}

func (s *profileService) Me(ctx context.Context, userID uint) (dto.ProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, ErrUserNotFound
		}
		return dto.ProfileResponse{}, err
	}

	registrations, err := s.events.ListUserRegistrations(ctx, userID, profileActivityLimit)
	if err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("load registrations: %w", err)
	}

	complaints, err := s.complaints.ListByUser(ctx, userID, profileActivityLimit)
	if err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("load complaints: %w", err)
	}

	surveys, err := s.surveys.ListUserSubmissions(ctx, userID, profileActivityLimit)
	if err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("load survey submissions: %w", err)
	}

	return dto.ProfileResponse{
		User:          dto.NewUserResponse(user),
		Registrations: registrations,
		Complaints:    complaints,
		Surveys:       surveys,
	}, nil
}

func (s *profileService) ChangePassword(ctx context.Context, userID uint, req dto.PasswordChangeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info().Uint("user_id", userID).Msg("password changed")
	return nil
}

func (s *profileService) UpdatePicture(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error) {
	if file == nil {
		return dto.UserResponse{}, newValidationError("profile_picture", "no file uploaded")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	location, err := s.images.Store(ctx, "avatar", file)
	if err != nil {
		return dto.UserResponse{}, err
	}

	updated, err := s.users.Update(ctx, userID, map[string]interface{}{"profile_image_url": location})
	if err != nil {
		s.images.Discard(ctx, location)
		return dto.UserResponse{}, fmt.Errorf("update profile picture: %w", err)
	}
	s.images.Discard(ctx, user.ProfileImageURL)

	s.logger.Info().Uint("user_id", userID).Msg("profile picture updated")
	return dto.NewUserResponse(updated), nil
}
