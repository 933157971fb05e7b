package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

var errInvalidID = errors.New("invalid id")

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || value == 0 {
		return 0, errInvalidID
	}
	return uint(value), nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := middleware.RequestLogger(base, c)
	return &logger
}

// identity returns the authenticated caller. Routes are mounted behind
// Authenticate, so a missing identity only happens on misconfigured routes.
func identity(c *fiber.Ctx) (auth.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return id, nil
}

func validationDetails(err error) (interface{}, bool) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]service.FieldError, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			fields = append(fields, service.FieldError{
				Field:   fieldErr.Field(),
				Message: validationMessage(fieldErr),
			})
		}
		return fields, true
	}

	var domainErr *service.ValidationError
	if errors.As(err, &domainErr) {
		return domainErr.Fields, true
	}
	return nil, false
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fieldErr.Param()
	case "max":
		return "must be at most " + fieldErr.Param()
	case "oneof":
		return "must be one of: " + fieldErr.Param()
	case "url":
		return "must be a valid url"
	case "gtefield", "ltefield", "nefield":
		return "is inconsistent with " + fieldErr.Param()
	default:
		return "failed " + fieldErr.Tag() + " validation"
	}
}

// handleError maps domain errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a generic 500.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	var banErr *service.BanError
	switch {
	case errors.Is(err, errInvalidID):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	case errors.Is(err, auth.ErrUnauthenticated):
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid credentials")
	case errors.As(err, &banErr):
		return utils.Fail(c, fiber.StatusForbidden, "account is banned", fiber.Map{"reason": banErr.Reason})
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, service.ErrNotArticleAuthor):
		return utils.SendError(c, fiber.StatusForbidden, "access denied: insufficient permissions")
	case errors.Is(err, service.ErrPasswordMismatch):
		return utils.SendError(c, fiber.StatusBadRequest, "current password is incorrect")
	case errors.Is(err, service.ErrRegistrationClosed):
		return utils.SendError(c, fiber.StatusConflict, "registration deadline has passed")
	case errors.Is(err, service.ErrAlreadyRegistered):
		return utils.SendError(c, fiber.StatusConflict, "you are already registered for this event")
	case errors.Is(err, service.ErrEventFull):
		return utils.SendError(c, fiber.StatusConflict, "event is full")
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "you have already submitted this survey")
	case errors.Is(err, service.ErrSurveyNotActive):
		return utils.SendError(c, fiber.StatusConflict, "survey is not accepting submissions")
	case errors.Is(err, service.ErrAccountExists):
		return utils.SendError(c, fiber.StatusConflict, "username or email already exists")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, "file type not supported")
	case errors.Is(err, service.ErrStorageUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrSurveyNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrArticleNotFound),
		errors.Is(err, service.ErrComplaintNotFound),
		errors.Is(err, service.ErrFileNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Msg(action)
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
