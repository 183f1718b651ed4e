package mockapi

import (
	"context"
	"errors"
	"log"
	"time"

	"avocado/internal/config"
	"avocado/internal/media"
	"avocado/internal/middleware"
	"avocado/internal/models"
	"avocado/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// API is the development blog REST API.
type API struct {
	config   *config.Config
	db       *gorm.DB
	users    UserRepository
	posts    PostRepository
	comments CommentRepository
	tokens   *TokenIssuer
	uploads  *UploadStore
	app      *fiber.App
}

// New wires the gorm repositories, the token issuer and the upload store.
func New(cfg *config.Config, db *gorm.DB) (*API, error) {
	if db == nil {
		return nil, errors.New("mockapi: database is required")
	}
	uploads, err := NewUploadStore(cfg.UploadDir, media.NewNormalizer(cfg))
	if err != nil {
		return nil, err
	}
	return &API{
		config:   cfg,
		db:       db,
		users:    NewUserRepository(db),
		posts:    NewPostRepository(db),
		comments: NewCommentRepository(db),
		tokens:   NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour),
		uploads:  uploads,
	}, nil
}

// Tokens exposes the issuer so tools and tests can mint tokens.
func (a *API) Tokens() *TokenIssuer { return a.tokens }

// App builds the fiber application.
func (a *API) App() *fiber.App {
	if a.app != nil {
		return a.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "avocado-api",
		ErrorHandler: errorHandler,
		BodyLimit:    (max(a.config.ImageMaxUploadSizeMB, media.DefaultMaxUploadSizeMB) + 1) * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.StructuredLogger())

	a.routes(app)
	a.app = app
	return app
}

func (a *API) routes(app *fiber.App) {
	app.Static(uploadsRoute, a.uploads.Dir())

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
	})

	api := app.Group("/api")
	auth := a.authRequired()

	api.Get("/posts", a.ListPosts)
	api.Post("/posts", auth, a.CreatePost)
	api.Get("/posts/:id", a.GetPost)
	api.Put("/posts/:id", auth, a.UpdatePost)
	api.Delete("/posts/:id", auth, a.DeletePost)
	api.Put("/posts/:id/views", a.IncrementViews)

	api.Get("/posts/:id/comments", a.ListComments)
	api.Post("/posts/:id/comments", auth, a.CreateComment)
	api.Put("/posts/:id/comments/:commentId", auth, a.UpdateComment)
	api.Delete("/posts/:id/comments/:commentId", auth, a.DeleteComment)

	api.Post("/accounts/login", a.Login)
	api.Get("/accounts", a.ListAccounts)
	api.Get("/accounts/:id", a.GetAccount)
	api.Put("/accounts/:id/nickname", auth, a.UpdateNickname)
}

// errorHandler answers JSON errors: AppErrors by code, fiber errors by status.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, errors.New(fe.Message))
	}
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		observability.Logger.ErrorContext(c.UserContext(), "api error", "error", err.Error(), "path", c.Path())
	}
	return models.RespondWithError(c, status, err)
}

// Start listens on the configured mock API port.
func (a *API) Start() error {
	log.Printf("Mock API starting on port %s...", a.config.MockAPIPort)
	return a.App().Listen(":" + a.config.MockAPIPort)
}

// Shutdown stops the listener and closes the database.
func (a *API) Shutdown(ctx context.Context) error {
	if a.app != nil {
		if err := a.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing database: %v", cerr)
		}
	}
	return nil
}
