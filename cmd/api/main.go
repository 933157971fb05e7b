package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/config"
	"github.com/noah-isme/campus-portal-api/internal/database"
	"github.com/noah-isme/campus-portal-api/internal/handler"
	"github.com/noah-isme/campus-portal-api/internal/messaging"
	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/internal/router"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/storage"
	"github.com/noah-isme/campus-portal-api/internal/utils"
	cloud "github.com/noah-isme/campus-portal-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to access database pool")
	}
	defer sqlDB.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, caching disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, domain events disabled")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}
	publisher := messaging.NewNATSPublisher(natsConn, cfg.NATSSubjectPrefix, logger)

	fileStorage := buildFileStorage(cfg, logger)
	imageUploader := service.NewImageUploader(fileStorage, cfg.UploadMaxSizeMB, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTExpiry,
	})

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, tokens, validate, logger)
	userService := service.NewUserService(userRepo, activityService, validate, logger)
	profileService := service.NewProfileService(userRepo, eventRepo, complaintRepo, surveyRepo, imageUploader, validate, logger)
	dashboardService := service.NewDashboardService(statsRepo, redisClient, cfg.DashboardCacheTTL, logger)
	feedService := service.NewFeedService(eventRepo, surveyRepo, fileRepo, redisClient, cfg.DashboardCacheTTL, logger)
	eventService := service.NewEventService(eventRepo, activityService, imageUploader, validate, logger)
	registrationService := service.NewRegistrationService(repository.NewAdmissionStore(db), publisher, logger)
	surveyService := service.NewSurveyService(surveyRepo, activityService, validate, logger)
	submissionService := service.NewSurveySubmissionService(surveyRepo, repository.NewSubmissionStore(db), publisher, validate, logger)
	articleService := service.NewArticleService(articleRepo, activityService, validate, logger)
	complaintService := service.NewComplaintService(complaintRepo, activityService, publisher, validate, logger)
	fileService := service.NewFileService(fileStorage, fileRepo, activityService, cfg.UploadMaxSizeMB, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fiberErr, ok := err.(*fiber.Error); ok {
				return utils.SendError(c, fiberErr.Code, fiberErr.Message)
			}
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled request error")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		},
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authService, logger),
		UserHandler:      handler.NewUserHandler(userService, logger),
		ProfileHandler:   handler.NewProfileHandler(profileService, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardService, feedService, logger),
		EventHandler:     handler.NewEventHandler(eventService, registrationService, logger),
		SurveyHandler:    handler.NewSurveyHandler(surveyService, submissionService, logger),
		ArticleHandler:   handler.NewArticleHandler(articleService, logger),
		ComplaintHandler: handler.NewComplaintHandler(complaintService, logger),
		FileHandler:      handler.NewFileHandler(fileService, logger),
		ActivityHandler:  handler.NewAdminActivityHandler(activityService, logger),
		Authenticate:     middleware.Authenticate(auth.NewVerifier(tokens, userRepo), logger),
		Database:         sqlDB,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

// buildFileStorage prefers Cloudinary and falls back to the local upload
// directory. Uploads are refused when neither is usable.
func buildFileStorage(cfg config.Config, logger zerolog.Logger) service.FileStorage {
	if cfg.CloudinaryEnabled() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err == nil {
			return uploader
		}
		logger.Warn().Err(err).Msg("cloudinary unavailable, falling back to local storage")
	}

	local, err := storage.NewLocal(cfg.UploadDir, cfg.UploadPublicURL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("local storage unavailable, uploads disabled")
		return nil
	}
	return local
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
