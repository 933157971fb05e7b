package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

// SurveyHandler serves survey authoring and student submissions.
type SurveyHandler struct {
	surveys     service.SurveyService
	submissions service.SurveySubmissionService
	logger      zerolog.Logger
}

// NewSurveyHandler constructs the handler.
func NewSurveyHandler(surveys service.SurveyService, submissions service.SurveySubmissionService, logger zerolog.Logger) *SurveyHandler {
	return &SurveyHandler{
		surveys:     surveys,
		submissions: submissions,
		logger:      logger.With().Str("component", "survey_handler").Logger(),
	}
}

// Register wires the staff routes under /surveys.
func (h *SurveyHandler) Register(router fiber.Router) {
	router.Get("", requireSurveyReaders, h.list)
	router.Post("", requireAdministrators, h.create)
}

// RegisterStudent wires /student/surveys.
func (h *SurveyHandler) RegisterStudent(router fiber.Router) {
	router.Get("/surveys", h.listForStudent)
	router.Get("/surveys/:id", h.getForStudent)
	router.Post("/surveys/:id/submit", h.submit)
}

func (h *SurveyHandler) list(c *fiber.Ctx) error {
	surveys, err := h.surveys.List(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "failed to list surveys")
	}
	return utils.SendSuccess(c, "surveys retrieved", surveys)
}

func (h *SurveyHandler) create(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.SurveyCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	survey, err := h.surveys.Create(c.UserContext(), actor, req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to create survey")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "survey created successfully", survey)
}

func (h *SurveyHandler) listForStudent(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	surveys, err := h.surveys.ListForStudent(c.UserContext(), actor.UserID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list surveys")
	}
	return utils.SendSuccess(c, "surveys retrieved", surveys)
}

func (h *SurveyHandler) getForStudent(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	survey, err := h.surveys.GetForStudent(c.UserContext(), id, actor.UserID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubmitted) {
			return utils.SendError(c, fiber.StatusForbidden, "you have already completed this survey")
		}
		return handleError(c, h.logger, err, "failed to load survey")
	}
	return utils.SendSuccess(c, "survey retrieved", survey)
}

func (h *SurveyHandler) submit(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.SurveySubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Submit(c.UserContext(), id, actor.UserID, req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to submit survey")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "survey submitted successfully", submission)
}
