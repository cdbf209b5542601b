package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/whwh2000/translator-robot/internal/api/handlers"
	"github.com/whwh2000/translator-robot/internal/api/middleware"
	"github.com/whwh2000/translator-robot/internal/auth"
	"github.com/whwh2000/translator-robot/internal/config"
	"github.com/whwh2000/translator-robot/internal/tutor"
)

type Router struct {
	mux    *chi.Mux
	cfg    *config.Config
	tutor  *tutor.Service
	jwt    *auth.JWTMiddleware
	rl     *middleware.RateLimiter
	checks []handlers.Check
}

// NewRouter wires the tutor behind the HTTP API. checks are the dependencies
// probed by /readyz.
func NewRouter(cfg *config.Config, svc *tutor.Service, checks ...handlers.Check) *Router {
	return &Router{
		mux:    chi.NewRouter(),
		cfg:    cfg,
		tutor:  svc,
		jwt:    auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		rl:     middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		checks: checks,
	}
}

// Close releases the rate limiter's background sweeper.
func (rt *Router) Close() {
	rt.rl.Close()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	if rt.cfg.Server.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	// Health endpoints (no auth, no rate limit)
	health := handlers.NewHealthHandler(rt.checks...)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	catalogH := handlers.NewCatalogHandler(rt.tutor)
	sessionH := handlers.NewSessionHandler(rt.tutor)
	speechH := handlers.NewSpeechHandler(rt.tutor)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.rl.Limit)
		r.Use(rt.jwt.Authenticate)

		r.Get("/languages", catalogH.Languages)
		r.Get("/models", catalogH.Models)

		r.Post("/speech", speechH.SpeakText)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionH.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionH.Get)
				r.Delete("/", sessionH.Delete)
				r.Put("/settings", sessionH.UpdateSettings)
				r.Post("/input", sessionH.Input)
				r.Post("/clear", sessionH.Clear)
				r.Post("/speech", speechH.Speak)
				r.Get("/history", sessionH.History)
			})
		})
	})

	return r
}
