package handler

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

// EventHandler serves event management and student registration.
type EventHandler struct {
	events        service.EventService
	registrations service.RegistrationService
	logger        zerolog.Logger
}

// NewEventHandler constructs the handler.
func NewEventHandler(events service.EventService, registrations service.RegistrationService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		events:        events,
		registrations: registrations,
		logger:        logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register wires the staff routes under /events.
func (h *EventHandler) Register(router fiber.Router) {
	router.Get("", requireEventReaders, h.list)
	router.Get("/:id", requireEventInspectors, h.get)
	router.Get("/:id/registrations", requireAdministrators, h.registrants)
	router.Post("", requireAdministrators, h.create)
	router.Put("/:id", requireAdministrators, h.update)
}

// RegisterStudent wires /student/events.
func (h *EventHandler) RegisterStudent(router fiber.Router) {
	router.Get("/events", h.listForStudent)
	router.Post("/events/:id/register", h.register)
}

func (h *EventHandler) list(c *fiber.Ctx) error {
	events, err := h.events.List(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "failed to list events")
	}
	return utils.SendSuccess(c, "events retrieved", events)
}

func (h *EventHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	event, err := h.events.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load event")
	}
	return utils.SendSuccess(c, "event retrieved", event)
}

func (h *EventHandler) registrants(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	result, err := h.events.Registrants(c.UserContext(), id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list registrants")
	}
	return utils.SendSuccess(c, "registrations retrieved", result)
}

func (h *EventHandler) create(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.EventCreateRequest
	cover, err := bindEventRequest(c, &req)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.CoverImageUpload = cover

	event, err := h.events.Create(c.UserContext(), actor, req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to create event")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "event created successfully", event)
}

func (h *EventHandler) update(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.EventUpdateRequest
	cover, err := bindEventRequest(c, &req)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.CoverImageUpload = cover

	event, err := h.events.Update(c.UserContext(), actor, id, req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to update event")
	}
	return utils.SendSuccess(c, "event updated successfully", event)
}

func (h *EventHandler) listForStudent(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	events, err := h.events.ListForStudent(c.UserContext(), actor.UserID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list events")
	}
	return utils.SendSuccess(c, "events retrieved", events)
}

func (h *EventHandler) register(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	registration, err := h.registrations.Register(c.UserContext(), id, actor.UserID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to register for event")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "successfully registered for the event", registration)
}

// bindEventRequest decodes a JSON body, or a multipart form whose "data"
// field holds the same JSON and whose optional cover_image_upload part holds
// the cover picture.
func bindEventRequest(c *fiber.Ctx, dst interface{}) (*multipart.FileHeader, error) {
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return nil, c.BodyParser(dst)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	if data := form.Value["data"]; len(data) > 0 && strings.TrimSpace(data[0]) != "" {
		if err := c.App().Config().JSONDecoder([]byte(data[0]), dst); err != nil {
			return nil, err
		}
	}
	if files := form.File["cover_image_upload"]; len(files) > 0 {
		return files[0], nil
	}
	return nil, nil
}
