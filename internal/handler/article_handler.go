package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

// ArticleHandler serves news authoring and the student news reader.
type ArticleHandler struct {
	service service.ArticleService
	logger  zerolog.Logger
}

// NewArticleHandler constructs the handler.
func NewArticleHandler(service service.ArticleService, logger zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		service: service,
		logger:  logger.With().Str("component", "article_handler").Logger(),
	}
}

// Register wires /content/articles.
func (h *ArticleHandler) Register(router fiber.Router) {
	router.Get("", requireArticleReaders, h.list)
	router.Get("/:id", requireArticleEditors, h.get)
	router.Post("", requireArticleEditors, h.create)
	router.Put("/:id", requireArticleEditors, h.update)
	router.Delete("/:id", requireArticleEditors, h.delete)
}

// RegisterStudent wires /student/news.
func (h *ArticleHandler) RegisterStudent(router fiber.Router) {
	router.Get("/news", h.listPublished)
	router.Get("/news/:id", h.getPublished)
}

func (h *ArticleHandler) list(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	articles, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list articles")
	}
	return utils.SendSuccess(c, "articles retrieved", articles)
}

func (h *ArticleHandler) get(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	article, err := h.service.Get(c.UserContext(), actor, id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load article")
	}
	return utils.SendSuccess(c, "article retrieved", article)
}

func (h *ArticleHandler) create(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.ArticleCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	article, err := h.service.Create(c.UserContext(), actor, req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to create article")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "article created successfully", article)
}

func (h *ArticleHandler) update(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	var req dto.ArticleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	article, err := h.service.Update(c.UserContext(), actor, id, req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to update article")
	}
	return utils.SendSuccess(c, "article updated successfully", article)
}

func (h *ArticleHandler) delete(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return handleError(c, h.logger, err, "failed to delete article")
	}
	return utils.SendSuccess(c, "article deleted successfully", nil)
}

func (h *ArticleHandler) listPublished(c *fiber.Ctx) error {
	articles, err := h.service.ListPublished(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "failed to list news")
	}
	return utils.SendSuccess(c, "news retrieved", articles)
}

func (h *ArticleHandler) getPublished(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	article, err := h.service.GetPublished(c.UserContext(), id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load news article")
	}
	return utils.SendSuccess(c, "news article retrieved", article)
}
