package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

// FileHandler serves downloadable file administration.
type FileHandler struct {
	service service.FileService
	logger  zerolog.Logger
}

// NewFileHandler constructs the handler.
func NewFileHandler(service service.FileService, logger zerolog.Logger) *FileHandler {
	return &FileHandler{
		service: service,
		logger:  logger.With().Str("component", "file_handler").Logger(),
	}
}

// Register wires /files. Every route is limited to administrators.
func (h *FileHandler) Register(router fiber.Router) {
	router.Use(requireAdministrators)
	router.Get("", h.list)
	router.Post("/upload", h.upload)
	router.Delete("/:id", h.delete)
}

func (h *FileHandler) list(c *fiber.Ctx) error {
	files, err := h.service.List(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "failed to list files")
	}
	return utils.SendSuccess(c, "files retrieved", files)
}

func (h *FileHandler) upload(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "no file uploaded")
	}

	result, err := h.service.Upload(c.UserContext(), actor, file)
	if err != nil {
		return handleError(c, h.logger, err, "upload failed")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "file uploaded successfully", result)
}

func (h *FileHandler) delete(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return handleError(c, h.logger, err, "failed to delete file")
	}
	return utils.SendSuccess(c, "file deleted successfully", nil)
}
