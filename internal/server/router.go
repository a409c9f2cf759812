// Package server assembles the HTTP router
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	authMiddleware "github.com/uninest/backend/internal/auth/middleware"
	"github.com/uninest/backend/internal/config"
	"github.com/uninest/backend/internal/handlers"
	loggerMiddleware "github.com/uninest/backend/internal/logger/middleware"
	"github.com/uninest/backend/internal/metrics"
	"github.com/uninest/backend/internal/middlewares"
	"go.uber.org/zap"
)

const maxRequestSize = 10 * 1024 * 1024 // 10MB

// Dependencies are the collaborators the router wires into handlers
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	AuthService  handlers.AuthService
	AdminService handlers.AdminService
}

// NewRouter builds the application router with all middleware and routes
func NewRouter(deps Dependencies) chi.Router {
	cfg := deps.Config
	development := cfg.IsDevelopment()

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Metrics, deps.Logger, development)
	adminHandler := handlers.NewAdminHandler(deps.AdminService, deps.Logger, development)
	healthHandler := handlers.NewHealthHandler(deps.Logger)

	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(deps.Logger))
	r.Use(middlewares.RecoveryMiddleware(deps.Logger))
	r.Use(deps.Metrics.Middleware)
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.RateLimit > 0 {
		r.Use(httprate.Limit(
			cfg.RateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited),
		))
	}
	r.Use(middlewares.RequestSizeLimitMiddleware(maxRequestSize))

	r.Get("/", healthHandler.Root)
	r.Handle("/metrics", deps.Metrics.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		healthHandler.RegisterRoutes(r)
		authHandler.RegisterRoutes(r)

		// Administration is only reachable when an API key is configured
		if cfg.APIKey != "" {
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.APIKeyMiddleware(cfg.APIKey))
				adminHandler.RegisterRoutes(r)
			})
		}
	})

	return r
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"message":"Too many requests"}`))
}
