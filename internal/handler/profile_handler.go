package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	service service.ProfileService
	logger  zerolog.Logger
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service service.ProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register wires /profile for any authenticated caller.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
	router.Put("/password", h.changePassword)
	router.Post("/picture", h.uploadPicture)
}

func (h *ProfileHandler) me(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	profile, err := h.service.Me(c.UserContext(), actor.UserID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load profile")
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *ProfileHandler) changePassword(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.ChangePassword(c.UserContext(), actor.UserID, req); err != nil {
		return handleError(c, h.logger, err, "failed to change password")
	}

	return utils.SendSuccess(c, "password updated successfully", nil)
}

func (h *ProfileHandler) uploadPicture(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	file, err := c.FormFile("profile_picture")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "no file uploaded")
	}

	user, err := h.service.UpdatePicture(c.UserContext(), actor.UserID, file)
	if err != nil {
		return handleError(c, h.logger, err, "failed to update profile picture")
	}
	return utils.SendSuccess(c, "profile picture updated successfully", user)
}
