package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Katebsaber/IFSGuideTask/internal/api/middleware"
	"github.com/Katebsaber/IFSGuideTask/internal/config"
	"github.com/Katebsaber/IFSGuideTask/internal/dialogue"
	"github.com/Katebsaber/IFSGuideTask/internal/handlers"
	"github.com/Katebsaber/IFSGuideTask/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	logger zerolog.Logger,
	cfg *config.Config,
	svc *dialogue.Service,
	db store.MessageStore,
	redisStore *store.RedisStore,
	resolver middleware.PrincipalResolver,
) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024)) // 64KB max body
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (needs Redis; skipped in bare development setups)
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, cfg.RateLimitWhitelist)
		r.Use(limiter.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(svc, db, redisStore)
	auth := middleware.NewAuthMiddleware(resolver, redisStore)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)

	// Authenticated routes (credential resolved against the auth service)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/api/v1/dialogue", h.Converse)
		r.Get("/api/v1/dialogues", h.ListDialogues)
		r.Get("/api/v1/dialogues/{dialogueID}/messages", h.ListMessages)
	})

	return r
}
