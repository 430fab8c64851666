package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
)

type RouterConfig struct {
	Webhook        *WebhookHandler
	Leads          *LeadHandler
	Sessions       *SessionHandler
	Health         *HealthHandler
	RateLimiter    *RateLimiter
	Auth           func(http.Handler) http.Handler
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/webhook", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		r.Get("/instagram", cfg.Webhook.VerifyInstagram)
		r.Post("/instagram", cfg.Webhook.Instagram)
		r.Post("/google", cfg.Webhook.Google)
		r.Post("/form", cfg.Webhook.Website)
	})

	auth := cfg.Auth
	if auth == nil {
		auth = middleware.DevAuth
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Sessions != nil {
			r.Get("/oauth/google/redirect_url", cfg.Sessions.RedirectURL)
			r.Post("/sessions", cfg.Sessions.Create)
			r.Get("/logout", cfg.Sessions.Logout)
		}

		r.Group(func(r chi.Router) {
			r.Use(auth)
			if cfg.Sessions != nil {
				r.Get("/users/me", cfg.Sessions.Me)
			}
			r.Get("/leads", cfg.Leads.List)
			r.Get("/leads/stats/summary", cfg.Leads.Stats)
			r.Get("/leads/{id}", cfg.Leads.Get)
			r.Patch("/leads/{id}", cfg.Leads.Update)
			r.Delete("/leads/{id}", cfg.Leads.Delete)
		})
	})

	return r
}
