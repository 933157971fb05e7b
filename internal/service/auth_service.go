package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// BanError carries the reason a banned account was refused.
type BanError struct {
	Reason string
}

func (e *BanError) Error() string {
	if e.Reason == "" {
		return ErrAccountBanned.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAccountBanned.Error(), e.Reason)
}

// Unwrap lets errors.Is match ErrAccountBanned.
func (e *BanError) Unwrap() error { return ErrAccountBanned }

// AuthService handles account registration and login.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
}

type authService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	exists, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("check existing account: %w", err)
	}
	if exists {
		return dto.UserResponse{}, ErrAccountExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Country:      strings.TrimSpace(req.Country),
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrAccountExists
		}
		return dto.UserResponse{}, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("account registered")
	return dto.NewUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	identifier := strings.TrimSpace(req.Identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, fmt.Errorf("load account: %w", err)
	}

	if user.IsBanned {
		reason := ""
		if user.BanReason != nil {
			reason = *user.BanReason
		}
		return dto.LoginResponse{}, &BanError{Reason: reason}
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role.String()).Msg("login succeeded")
	return dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}
