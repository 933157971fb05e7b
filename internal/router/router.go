package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-portal-api/internal/config"
	"github.com/noah-isme/campus-portal-api/internal/handler"
	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	ProfileHandler   *handler.ProfileHandler
	DashboardHandler *handler.DashboardHandler
	EventHandler     *handler.EventHandler
	SurveyHandler    *handler.SurveyHandler
	ArticleHandler   *handler.ArticleHandler
	ComplaintHandler *handler.ComplaintHandler
	FileHandler      *handler.FileHandler
	ActivityHandler  *handler.AdminActivityHandler
	// Authenticate resolves the bearer credential. Protected groups are not
	// mounted without it.
	Authenticate fiber.Handler
	Database     handler.Pinger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Database))

	if deps.AuthHandler != nil {
		authGroup := api.Group("/auth", middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow))
		deps.AuthHandler.Register(authGroup)
	}

	if deps.Authenticate == nil {
		return
	}
	protected := func(prefix string) fiber.Router {
		return api.Group(prefix, deps.Authenticate)
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(protected("/users"))
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.Register(protected("/profile"))
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterDashboard(protected("/dashboard"))
		deps.DashboardHandler.RegisterHome(protected("/home"))
	}
	if deps.EventHandler != nil {
		deps.EventHandler.Register(protected("/events"))
	}
	if deps.SurveyHandler != nil {
		deps.SurveyHandler.Register(protected("/surveys"))
	}
	if deps.ArticleHandler != nil {
		deps.ArticleHandler.Register(protected("/content/articles"))
	}
	if deps.ComplaintHandler != nil {
		deps.ComplaintHandler.Register(protected("/complaints"))
	}
	if deps.FileHandler != nil {
		deps.FileHandler.Register(protected("/files"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(protected("/admin/activity"))
	}

	student := protected("/student")
	if deps.EventHandler != nil {
		deps.EventHandler.RegisterStudent(student)
	}
	if deps.SurveyHandler != nil {
		deps.SurveyHandler.RegisterStudent(student)
	}
	if deps.ArticleHandler != nil {
		deps.ArticleHandler.RegisterStudent(student)
	}
	if deps.ComplaintHandler != nil {
		deps.ComplaintHandler.RegisterStudent(student)
	}
}
