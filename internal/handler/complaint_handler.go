package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

// ComplaintHandler serves complaint filing and moderation.
type ComplaintHandler struct {
	service service.ComplaintService
	logger  zerolog.Logger
}

// NewComplaintHandler constructs the handler.
func NewComplaintHandler(service service.ComplaintService, logger zerolog.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		service: service,
		logger:  logger.With().Str("component", "complaint_handler").Logger(),
	}
}

// Register wires the staff routes under /complaints.
func (h *ComplaintHandler) Register(router fiber.Router) {
	router.Get("", requireComplaintStaff, h.list)
	router.Get("/:id", requireComplaintStaff, h.get)
	router.Post("/:id/responses", requireComplaintStaff, h.respond)
	router.Put("/:id/status", requireAdministrators, h.updateStatus)
}

// RegisterStudent wires /student/complaints.
func (h *ComplaintHandler) RegisterStudent(router fiber.Router) {
	router.Post("/complaints", h.create)
}

func (h *ComplaintHandler) create(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.ComplaintCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	complaint, err := h.service.Create(c.UserContext(), actor, req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to file complaint")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "complaint submitted successfully", complaint)
}

func (h *ComplaintHandler) list(c *fiber.Ctx) error {
	complaints, err := h.service.List(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "failed to list complaints")
	}
	return utils.SendSuccess(c, "complaints retrieved", complaints)
}

func (h *ComplaintHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	complaint, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load complaint")
	}
	return utils.SendSuccess(c, "complaint retrieved", complaint)
}

func (h *ComplaintHandler) respond(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.ComplaintResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	complaint, err := h.service.Respond(c.UserContext(), actor, id, req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to add complaint response")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "response added successfully", complaint)
}

func (h *ComplaintHandler) updateStatus(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.ComplaintStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.UpdateStatus(c.UserContext(), actor, id, req); err != nil {
		return handleError(c, h.logger, err, "failed to update complaint status")
	}
	return utils.SendSuccess(c, "complaint status updated successfully", nil)
}
