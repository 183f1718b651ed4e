// Package server serves the HTML pages of the blog client.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"avocado/internal/apiclient"
	"avocado/internal/cache"
	"avocado/internal/config"
	"avocado/internal/featureflags"
	"avocado/internal/media"
	"avocado/internal/middleware"
	"avocado/internal/models"
	"avocado/internal/observability"
	"avocado/internal/service"
	"avocado/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// pinger is implemented by API clients that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server holds all dependencies of the web client.
type Server struct {
	config         *config.Config
	api            service.API
	redis          *redis.Client
	app            *fiber.App
	sessions       *session.Store
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Set
	postService    *service.PostService
	commentService *service.CommentService
	accountService *service.AccountService
}

// NewServer creates a server talking to the configured API, with Redis-backed
// sessions when Redis is reachable.
func NewServer(cfg *config.Config) (*Server, error) {
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		cache.InitRedis(cfg.RedisURL)
		rdb = cache.GetClient()
	}
	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout())
	return NewServerWithDeps(cfg, api, rdb)
}

// NewServerWithDeps creates a Server from already-built dependencies. A nil
// redis client keeps sessions in memory and disables per-action rate limits.
func NewServerWithDeps(cfg *config.Config, api service.API, redisClient *redis.Client) (*Server, error) {
	if api == nil {
		return nil, errors.New("server: api client is required")
	}

	flags := featureflags.Parse(cfg.FeatureFlags)

	s := &Server{
		config:         cfg,
		api:            api,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("avocado-web"),
		featureFlags:   flags,
	}
	s.postService = service.NewPostService(api, flags, media.NewNormalizer(cfg), cfg.PublicBaseURL)
	s.commentService = service.NewCommentService(api)
	s.accountService = service.NewAccountService(api)

	sessCfg := session.Config{
		Expiration:     cfg.SessionTTL(),
		KeyLookup:      "cookie:" + sessionCookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	}
	if redisClient != nil {
		sessCfg.Storage = cache.NewRedisStorage(redisClient)
	}
	s.sessions = session.New(sessCfg)

	return s, nil
}

// App builds the fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "avocado",
		Views:        views.New(),
		ErrorHandler: s.errorHandler,
		BodyLimit:    (max(s.config.ImageMaxUploadSizeMB, media.DefaultMaxUploadSizeMB) + 1) * 1024 * 1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Assets are served before sessions so they never create one.
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(views.Static()),
		MaxAge: 3600,
	}))

	// Session loader must run before the context middleware so user_email is logged.
	app.Use(s.sessionMiddleware())

	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return isProbe(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString(middleware.RateLimitMessage)
		},
	}))

	if s.config.CSRFEnabled {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:" + csrfFormField,
			CookieName:     "avocado_csrf",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.CookieSecure,
			CookieHTTPOnly: true,
			Expiration:     2 * time.Hour,
			ContextKey:     csrfContextKey,
			KeyGenerator:   uuid.NewString,
			Next: func(c *fiber.Ctx) bool {
				return isProbe(c.Path())
			},
		}))
	}
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

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/main", fiber.StatusFound)
	})
	app.Get("/main", s.MainPage)

	app.Get("/login", s.LoginPage)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", s.Logout)

	app.Get("/profile", s.ProfilePage)
	app.Post("/profile/nickname", middleware.RateLimit(s.redis, 10, time.Minute, "nickname"), s.UpdateNickname)

	posts := app.Group("/post")
	// Specific routes before the generic /:id
	posts.Get("/create", s.CreatePostPage)
	posts.Post("/create", middleware.RateLimit(s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/edit/:id", s.EditPostPage)
	posts.Post("/edit/:id", s.UpdatePost)
	posts.Post("/:id/delete", s.DeletePost)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "comment"), s.SubmitComment)
	posts.Post("/:id/comments/:commentId/delete", s.DeleteComment)
	posts.Get("/:id", s.PostPage)
}

func isProbe(path string) bool {
	return path == "/metrics" || path == "/health/live" || path == "/health/ready"
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional; the
// API must be reachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	apiStatus := "healthy"
	if p, ok := s.api.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			apiStatus = "unhealthy"
		}
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
	if apiStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"api":   apiStatus,
			"redis": redisStatus,
		},
		"flags": s.featureFlags.Evaluate(""),
		"time":  time.Now(),
	})
}

// errorHandler renders unexpected handler errors as an HTML page.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong."

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		msg = fe.Message
	case models.ErrorCode(err) != "":
		code = models.StatusFor(err)
		if code == fiber.StatusInternalServerError {
			code = fiber.StatusBadGateway
		}
		msg = models.UserMessage(err, msg)
	}

	if code >= fiber.StatusInternalServerError {
		observability.Logger.ErrorContext(c.UserContext(), "handler error", "error", err.Error(), "path", c.Path())
	}

	c.Status(code)
	if rerr := c.Render("error", fiber.Map{"Title": "Error", "Status": code, "Message": msg}); rerr != nil {
		return c.SendString(msg)
	}
	return nil
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Web client starting on port %s (API %s)...", s.config.Port, s.config.APIBaseURL)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
