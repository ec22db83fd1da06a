// Package server contains the HTTP handlers for the artfeed JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"artfeed/internal/config"
	"artfeed/internal/middleware"
	"artfeed/internal/models"
	"artfeed/internal/observability"
	"artfeed/internal/repository"
	"artfeed/internal/scraper"
	"artfeed/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "artfeed-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	profileRepo    repository.ProfileRepository
	postRepo       repository.PostRepository
	tagRepo        repository.TagRepository
	commentRepo    repository.CommentRepository
	replyRepo      repository.ReplyRepository
	accountService *service.AccountService
	postService    *service.PostService
	commentService *service.CommentService
	avatarService  *service.AvatarService
}

// NewScraper builds the page scraper from the scraper settings in cfg.
func NewScraper(cfg *config.Config) *scraper.Scraper {
	fetcher := scraper.NewFetcher(scraper.FetcherConfig{
		Timeout:              cfg.ScraperTimeout(),
		Backoff:              cfg.ScraperRetryBackoff(),
		UserAgent:            cfg.ScraperUserAgent,
		AllowPrivateNetworks: cfg.ScraperAllowPrivate,
	})
	extractor := scraper.NewExtractor(scraper.Selectors{ImagePrefix: cfg.ScraperImagePrefix})
	return scraper.New(fetcher, extractor)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil. When pageScraper is nil one is built from cfg.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, pageScraper service.PageScraper) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server: config and database are required")
	}
	if pageScraper == nil {
		pageScraper = NewScraper(cfg)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		userRepo:       repository.NewUserRepository(db),
		profileRepo:    repository.NewProfileRepository(db),
		postRepo:       repository.NewPostRepository(db),
		tagRepo:        repository.NewTagRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		replyRepo:      repository.NewReplyRepository(db),
	}

	s.accountService = service.NewAccountService(s.userRepo, s.profileRepo, s.postRepo, repository.NewAccountTx(db))
	s.postService = service.NewPostService(s.postRepo, s.tagRepo, pageScraper, s.isAdminByUserID)
	s.commentService = service.NewCommentService(s.commentRepo, s.replyRepo, s.postRepo, s.isAdminByUserID)
	s.avatarService = service.NewAvatarService(s.profileRepo, cfg.MediaRoot, cfg.AvatarMaxUploadMB)

	return s, nil
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "artfeed API",
		BodyLimit: int(s.avatarService.MaxUploadSizeBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, err)
			}
			observability.FromContext(c.UserContext()).Error("unhandled error", zap.Error(err))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs before ContextMiddleware so the trace ID reaches the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(service.MediaURLPrefix, s.config.MediaRoot)

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "artfeed API Metrics",
	}))

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimitWithPolicy(
		s.redis, 10, 5*time.Minute, middleware.FailClosed, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Put("/email", s.AuthRequired(), s.UpdateEmail)

	api.Get("/tags", s.GetTags)
	api.Get("/categories/:tag", s.GetPosts)

	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/:id", s.GetPost)

	api.Get("/users/:username", s.GetUserProfile)

	protected := api.Group("", s.AuthRequired())

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id routes.
	posts.Post("/:id/like", s.LikePost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Post("/:id/replies", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_reply"), s.CreateReply)
	comments.Delete("/:id", s.DeleteComment)

	protected.Delete("/replies/:id", s.DeleteReply)

	profile := protected.Group("/profile")
	profile.Get("/", s.GetMyProfile)
	profile.Put("/", s.UpdateMyProfile)
	profile.Put("/onboarding", s.UpdateMyProfile)
	profile.Post("/avatar", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "avatar_upload"), s.UploadAvatar)
	profile.Delete("/", s.DeleteMyProfile)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	observability.Logger.Info("server starting", zap.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log := observability.Logger
	var errs []error

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close database: %w", cerr))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", rerr))
		}
	}

	log.Info("server shutdown complete")
	return errors.Join(errs...)
}
