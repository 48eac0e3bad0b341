// Package server contains the HTTP handlers and wiring for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "homestead/docs" // swagger docs
	"homestead/internal/auth"
	"homestead/internal/bootstrap"
	"homestead/internal/config"
	"homestead/internal/database"
	"homestead/internal/middleware"
	"homestead/internal/models"
	"homestead/internal/repository"
	"homestead/internal/service"
	"homestead/internal/storage"

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
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "homestead-api"
	tokenAudience = "homestead-app"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenIssuer
	limiter        *middleware.RateLimiter

	userRepo     repository.UserRepository
	propertyRepo repository.PropertyRepository
	postRepo     repository.PostRepository

	authService     *service.AuthService
	propertyService *service.PropertyService
	postService     *service.PostService
	userService     *service.UserService
	adminService    *service.AdminService
	mediaService    *service.MediaService
}

// NewServer brings up the runtime (database, schema, Redis) and the media
// storage named by cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// redisClient is nil when Redis is unreachable; caching and revocation degrade.
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		return nil, err
	}

	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite, miniredis and an in-memory store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Store) (*Server, error) {
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("session secret is not configured")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("homestead-api"),
		tokens:         auth.NewTokenIssuer(cfg.SessionSecret, tokenIssuer, tokenAudience, cfg.SessionTTL()),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env, middleware.FailOpen),
		userRepo:       repository.NewUserRepository(db),
		propertyRepo:   repository.NewPropertyRepository(db),
		postRepo:       repository.NewPostRepository(db),
	}

	s.authService = service.NewAuthService(s.userRepo)
	s.propertyService = service.NewPropertyService(s.propertyRepo, s.userRepo)
	s.postService = service.NewPostService(s.postRepo, s.userRepo)
	s.userService = service.NewUserService(s.userRepo)
	s.adminService = service.NewAdminService(s.userRepo, s.propertyRepo, s.postRepo)
	s.mediaService = service.NewMediaService(store, cfg.UploadMaxBytes())

	return s, nil
}

// NewStore builds the media store selected by STORAGE_DRIVER.
func NewStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "minio":
		return storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		return storage.NewLocalStore(cfg.StorageRoot)
	}
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Homestead API",
		// Uploads above the media limit must reach the service so it can
		// answer with a validation error instead of a bare 413.
		BodyLimit:    int(s.config.UploadMaxBytes()) + 1<<20,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: codeForStatus(fe.Code), Message: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusConflict:
		return models.CodeConflict
	default:
		return models.CodeValidation
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Listing images are embedded cross-origin by the site front end.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
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

	app.Use(middleware.SiteGate(middleware.SiteGateConfig{
		Enabled:  s.config.SiteGateEnabled,
		Username: s.config.SiteGateUser,
		Password: s.config.SiteGatePassword,
		Realm:    s.config.SiteGateRealm,
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

	api := app.Group("/api", s.LoadSession())
	api.Get("/metrics/dashboard", s.SessionRequired(), s.AdminRequired(), monitor.New(monitor.Config{
		Title: "Homestead Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", s.limiter.Limit(5, 10*time.Minute, "signup"), s.Signup)
	authGroup.Post("/signin", s.limiter.Limit(10, 5*time.Minute, "signin"), s.Signin)
	authGroup.Post("/signout", s.Signout)
	authGroup.Get("/session", s.GetSession)
	authGroup.Get("/redirect", s.Redirect)

	properties := api.Group("/properties")
	properties.Get("/", s.ListProperties)
	properties.Get("/:id", s.GetProperty)
	properties.Post("/", s.SessionRequired(), s.CreateProperty)
	properties.Put("/:id", s.SessionRequired(), s.UpdateProperty)
	properties.Delete("/:id", s.SessionRequired(), s.DeleteProperty)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Get("/:id", s.GetPost)
	posts.Post("/", s.SessionRequired(), s.CreatePost)
	posts.Put("/:id", s.SessionRequired(), s.UpdatePost)
	posts.Delete("/:id", s.SessionRequired(), s.DeletePost)

	users := api.Group("/users", s.SessionRequired())
	users.Get("/profile", s.GetProfile)
	users.Put("/profile", s.UpdateProfile)

	api.Post("/upload", s.SessionRequired(), s.limiter.Limit(30, time.Minute, "upload"), s.Upload)
	api.Get("/images/*", s.ServeImage)

	admin := api.Group("/admin", s.SessionRequired(), s.AdminRequired())
	admin.Get("/stats", s.AdminStats)
	admin.Get("/users", s.AdminListUsers)
	admin.Put("/users/:id/role", s.AdminSetRole)
	admin.Delete("/users/:id", s.AdminDeleteUser)
	admin.Get("/properties", s.AdminListProperties)
	admin.Get("/posts", s.AdminListPosts)

	api.Use(func(c *fiber.Ctx) error {
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Route not found"})
	})

	if s.config.SiteDir != "" {
		app.Static("/", s.config.SiteDir, fiber.Static{Compress: true})
	}
}

// LivenessCheck reports that the process is serving
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether dependencies are reachable. Redis is optional: the
// app degrades to uncached reads without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
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
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
