package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

// DashboardHandler serves role-specific counters and the home feed.
type DashboardHandler struct {
	dashboard service.DashboardService
	feed      service.FeedService
	logger    zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard service.DashboardService, feed service.FeedService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		feed:      feed,
		logger:    logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// RegisterDashboard wires /dashboard.
func (h *DashboardHandler) RegisterDashboard(router fiber.Router) {
	router.Get("", h.stats)
}

// RegisterHome wires /home.
func (h *DashboardHandler) RegisterHome(router fiber.Router) {
	router.Get("/feed", h.homeFeed)
}

func (h *DashboardHandler) stats(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, h.logger, err, "")
	}

	result, err := h.dashboard.Get(c.UserContext(), actor)
	if err != nil {
		return handleError(c, h.logger, err, "failed to build dashboard")
	}

	return utils.SendSuccess(c, "dashboard retrieved", result)
}

func (h *DashboardHandler) homeFeed(c *fiber.Ctx) error {
	result, err := h.feed.Home(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "failed to build home feed")
	}

	return utils.SendSuccess(c, "feed retrieved", result)
}
