// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "fitcraft/docs" // swagger docs
	"fitcraft/internal/auth"
	"fitcraft/internal/cache"
	"fitcraft/internal/config"
	"fitcraft/internal/database"
	"fitcraft/internal/middleware"
	"fitcraft/internal/models"
	"fitcraft/internal/repository"
	"fitcraft/internal/service"
	"fitcraft/internal/session"
	"fitcraft/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bytesPerMB = 1024 * 1024

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	blobs          storage.BlobStore
	sessions       session.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	accountService *service.AccountService
	postService    *service.PostService
}

// NewServer connects to the database and Redis and wires all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := cache.InitRedis(cfg.RedisURL); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs storage.BlobStore) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("config and database are required")
	}
	if blobs == nil {
		blobs = storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	}

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)

	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions := session.NewRedisStore(redisClient, cfg.SessionSecret, ttl)
	maxImageBytes := int64(cfg.ImageMaxUploadSizeMB) * bytesPerMB

	hashCost := bcrypt.DefaultCost
	if cfg.Env == "test" {
		hashCost = bcrypt.MinCost
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		blobs:          blobs,
		sessions:       sessions,
		promMiddleware: middleware.InitMetrics("fitcraft-api"),
	}
	s.accountService = service.NewAccountService(userRepo, profileRepo, sessions, auth.NewBcryptHasher(hashCost), blobs, maxImageBytes)
	s.postService = service.NewPostService(postRepo, blobs, maxImageBytes)

	return s, nil
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "FitCraft API",
		StrictRouting: false,
		BodyLimit:     (s.config.ImageMaxUploadSizeMB + 1) * bytesPerMB,
		ErrorHandler:  s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return models.RespondWithError(c, fe.Code, &models.AppError{Code: models.CodeNotFound, Message: "Not found."})
		case fiber.StatusRequestEntityTooLarge:
			return models.RespondWithError(c, fe.Code, models.NewValidationError("Request body too large"))
		case fiber.StatusMethodNotAllowed:
			return models.RespondWithError(c, fe.Code, models.NewValidationError(fmt.Sprintf("Method %q not allowed.", c.Method())))
		}
		if fe.Code < fiber.StatusInternalServerError {
			return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
		}
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Resolve the session before anything that keys on the user (logging, rate limits)
	app.Use(middleware.LoadSession(s.sessions, s.config.SessionCookieName))

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers; uploaded media is served cross-origin to the mobile client
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: s.config.AllowedOrigins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if local, ok := s.blobs.(*storage.LocalStore); ok && s.config.MediaURL == "" {
		app.Static("/media", local.Root, fiber.Static{ByteRange: true})
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "FitCraft Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Accounts
	// Credential endpoints refuse traffic rather than go unthrottled when Redis is down.
	api.Post("/signup", middleware.RateLimitWithPolicy(s.redis, s.config.Env, 5, 10*time.Minute, middleware.FailClosed, "signup"), s.Signup)
	api.Post("/login", middleware.RateLimitWithPolicy(s.redis, s.config.Env, 10, 5*time.Minute, middleware.FailClosed, "login"), s.Login)
	api.Post("/logout", s.Logout)
	api.Get("/session", s.GetSession)
	api.Get("/profile", middleware.AuthRequired, s.GetProfile)
	api.Patch("/profile", middleware.AuthRequired, s.UpdateProfile)

	// Posts: reads are public, writes need a session
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", middleware.AuthRequired,
		middleware.RateLimit(s.redis, s.config.Env, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", middleware.AuthRequired, s.ReplacePost)
	posts.Patch("/:id", middleware.AuthRequired, s.UpdatePost)
	posts.Delete("/:id", middleware.AuthRequired, s.DeletePost)

	api.Get("/users/:id/posts", s.GetUserPosts)
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
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
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
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
