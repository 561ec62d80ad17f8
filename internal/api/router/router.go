package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/barber-booking/internal/backend"
	httpmiddleware "github.com/wolfman30/barber-booking/internal/http/middleware"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Booking        *backend.Handler
	JWTSecret      string
	MetricsHandler http.Handler
	// LoginLimiter throttles POST /sessions when set.
	LoginLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.Booking.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		sessions := public
		if cfg.LoginLimiter != nil {
			sessions = public.With(httpmiddleware.RateLimit(cfg.LoginLimiter))
		}
		sessions.Post("/sessions", cfg.Booking.CreateSession)
	})

	// Customer routes (session JWT)
	r.Group(func(customer chi.Router) {
		customer.Use(httpmiddleware.UserJWT(cfg.JWTSecret))
		cfg.Booking.RegisterRoutes(customer)
	})

	return r
}
