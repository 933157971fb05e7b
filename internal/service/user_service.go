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

// UserService exposes admin account management.
type UserService interface {
	List(ctx context.Context, req dto.UserListRequest) (dto.UserListResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
	Update(ctx context.Context, actor auth.Identity, id uint, req dto.UserUpdateRequest) (dto.UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService constructs the user management service.
func NewUserService(repo repository.UserRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, req dto.UserListRequest) (dto.UserListResponse, error) {
	filter := repository.UserFilter{
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if strings.TrimSpace(req.Role) != "" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			return dto.UserListResponse{}, newValidationError("role", "unknown role %q", req.Role)
		}
		filter.Role = &role
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.UserListResponse{}, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, dto.NewUserResponse(user))
	}

	return dto.UserListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, actor auth.Identity, id uint, req dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	updates := map[string]interface{}{}
	changed := []string{}
	set := func(column string, value interface{}) {
		updates[column] = value
		changed = append(changed, column)
	}

	if req.FullName != nil {
		set("full_name", strings.TrimSpace(*req.FullName))
	}
	if req.Username != nil {
		set("username", strings.TrimSpace(*req.Username))
	}
	if req.Email != nil {
		set("email", strings.ToLower(strings.TrimSpace(*req.Email)))
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			return dto.UserResponse{}, newValidationError("role", "unknown role %q", *req.Role)
		}
		set("role", role)
	}
	if req.PhoneNumber != nil {
		set("phone_number", strings.TrimSpace(*req.PhoneNumber))
	}
	if req.AcademicYear != nil {
		set("academic_year", strings.TrimSpace(*req.AcademicYear))
	}
	if req.Country != nil {
		set("country", strings.TrimSpace(*req.Country))
	}
	if req.IsBanned != nil {
		set("is_banned", *req.IsBanned)
		if *req.IsBanned && req.BanReason != nil {
			set("ban_reason", strings.TrimSpace(*req.BanReason))
		} else if !*req.IsBanned {
			set("ban_reason", nil)
		}
	}

	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	user, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrAccountExists
		}
		return dto.UserResponse{}, fmt.Errorf("update user: %w", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionUserUpdated,
		EntityType: "user",
		EntityID:   uintPtr(id),
		Metadata:   map[string]interface{}{"fields": changed},
	})

	return dto.NewUserResponse(user), nil
}
