package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Flaymie/oprosy/internal/middleware"
	"github.com/Flaymie/oprosy/internal/ratelimit"
)

// RouterConfig carries everything the router needs to assemble the
// admission boundary.
type RouterConfig struct {
	// AuthHandler serves the authentication endpoints.
	AuthHandler *AuthHandler
	// Authenticator backs the TelegramAuth middleware on protected routes.
	Authenticator middleware.Authenticator
	// RateLimitStore makes the per-client admission decisions.
	RateLimitStore ratelimit.Store
	// ClientIDHeader is the trusted client identifier header.
	ClientIDHeader string
	// RateLimitRequests and RateLimitPeriod describe the configured window.
	RateLimitRequests int
	RateLimitPeriod   time.Duration
	// Logger is the structured logger for request logging and throttling.
	Logger *zap.Logger
}

// NewRouter constructs and returns an HTTP handler that serves the oprosy
// API admission boundary.
//
// Middleware chain (applied in order):
//  1. Recoverer                     — turns panics into 500s
//  2. WithRequestLogging(logger)    — logs each request with a request id
//  3. RateLimit                     — sliding-window admission, cheapest
//     rejection first: throttling is decided before any crypto runs
//
// Routes:
//
//	GET  /                  → service info
//	GET  /health            → health check
//	POST /api/auth/validate → explicit initData validation
//	GET  /api/auth/me       → current account (protected by TelegramAuth)
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(cfg.Logger))
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Store:          cfg.RateLimitStore,
		ClientIDHeader: cfg.ClientIDHeader,
		Limit:          cfg.RateLimitRequests,
		Period:         cfg.RateLimitPeriod,
		Logger:         cfg.Logger,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Oprosy API",
			"version": "1.0.0",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "oprosy-api",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Public: validation is how a client finds out whether its
			// credential is accepted at all.
			r.With(chiMiddleware.AllowContentType("application/json")).
				Post("/validate", cfg.AuthHandler.Validate)

			// Protected group: requires a valid bearer credential.
			r.Group(func(r chi.Router) {
				r.Use(middleware.TelegramAuth(cfg.Authenticator))
				r.Get("/me", cfg.AuthHandler.Me)
			})
		})
	})

	return r
}
