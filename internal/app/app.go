// Package app wires repositories, services and handlers into the HTTP application
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/lmsportal/backend/docs"
	"github.com/lmsportal/backend/internal/auth"
	"github.com/lmsportal/backend/internal/config"
	"github.com/lmsportal/backend/internal/handlers"
	"github.com/lmsportal/backend/internal/metrics"
	"github.com/lmsportal/backend/internal/middleware"
	"github.com/lmsportal/backend/internal/repositories"
	"github.com/lmsportal/backend/internal/services"
	"github.com/lmsportal/backend/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// AccountService is the interface that wraps the account methods the router and bootstrap need
type AccountService interface {
	middleware.TokenVerifier
	// Method EnsureAdmin creates an admin account unless the username is taken.
	//
	// Returns true when the account was created.
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

// App holds the wired application components
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector

	authService AccountService

	webHandler    *handlers.WebHandler
	courseAPI     *handlers.APICourseHandler
	enrollmentAPI *handlers.APIEnrollmentHandler
	healthHandler *handlers.HealthHandler
}

// New creates the application on top of an opened and migrated database
func New(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger)
	courseRepo := repositories.NewCourseRepository(db, logger)
	enrollmentRepo := repositories.NewEnrollmentRepository(db, logger)

	validator := validation.New()
	tokenGenerator := auth.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenGenerator, collector, logger)
	courseService := services.NewCourseService(courseRepo, validator, collector, logger)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, courseRepo, collector, logger)

	// Initialize handlers
	webHandler, err := handlers.NewWebHandler(authService, courseService, enrollmentService, cfg.Server.CookieSecure, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create web handler: %w", err)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		registry:      registry,
		metrics:       collector,
		authService:   authService,
		webHandler:    webHandler,
		courseAPI:     handlers.NewAPICourseHandler(courseRepo, validator, logger),
		enrollmentAPI: handlers.NewAPIEnrollmentHandler(enrollmentRepo, validator, logger),
		healthHandler: handlers.NewHealthHandler(db, logger),
	}, nil
}

// Bootstrap provisions the configured admin account if it does not exist yet
func (a *App) Bootstrap(ctx context.Context) error {
	created, err := a.authService.EnsureAdmin(ctx, a.cfg.Admin.Username, a.cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("failed to provision admin account: %w", err)
	}
	if created {
		a.logger.Info("admin account created", zap.String("username", a.cfg.Admin.Username))
	}
	return nil
}

// Router builds the HTTP handler serving pages, the REST API and operational endpoints
func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoveryMiddleware(a.logger))
	r.Use(middleware.SessionMiddleware(a.authService, a.logger))
	r.Use(middleware.LoggerMiddleware(a.logger))
	r.Use(middleware.MetricsMiddleware(a.metrics))
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(middleware.CORSMiddleware(a.cfg.CORS.AllowedOrigins))
	if a.cfg.Server.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(a.cfg.Server.RateLimitPerMinute, time.Minute))
	}
	r.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Handle("/metrics", metrics.Handler(a.registry))
	a.healthHandler.RegisterRoutes(r)

	// Pages submit forms, so they carry the CSRF guard
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRFMiddleware(a.cfg.Server.CookieSecure, a.logger))
		a.webHandler.RegisterRoutes(r)
	})

	// Scope REST resources to /api
	r.Route("/api", func(r chi.Router) {
		if a.cfg.API.EnforceAdmin {
			r.Use(middleware.AdminWritesMiddleware)
		}
		a.courseAPI.RegisterRoutes(r)
		a.enrollmentAPI.RegisterRoutes(r)
	})

	return r
}
