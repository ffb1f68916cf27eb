// Package router wires the chi mux: public webhooks and the short-link
// redirect unauthenticated, the admin CRUD/broadcast surface behind JWT.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/http/handlers"
	httpmiddleware "github.com/RabowNicholas/sanctuary-sms-tool/internal/http/middleware"
	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Handlers           *handlers.Handlers
	Logger             *logging.Logger
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	AdminAuthSecret    string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New builds the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	h := cfg.Handlers

	r.Get("/healthz", h.HandleHealthz)
	r.Get("/readyz", h.HandleReadyz)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	rate, burst := cfg.RateLimitRPS, cfg.RateLimitBurst
	if rate <= 0 {
		rate = 50
	}
	if burst <= 0 {
		burst = 100
	}

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.RateLimit(rate, burst))
		public.Post("/webhooks/sms", h.HandleSMSWebhook)
		public.Post("/webhooks/sms/status", h.HandleDeliveryStatusWebhook)
		public.Get("/sanctuary/{code}", h.HandleRedirect)
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.AdminAuthSecret != "" {
			api.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		}

		api.Post("/broadcast", h.HandleBroadcast)
		api.Post("/broadcast/test", h.HandleBroadcastTest)

		api.Route("/subscribers", func(r chi.Router) {
			r.Get("/", h.HandleSubscribersList)
			r.Post("/", h.HandleSubscriberCreate)
			r.Post("/bulk", h.HandleSubscribersBulkImport)
			r.Get("/{id}", h.HandleSubscriberGet)
			r.Put("/{id}", h.HandleSubscriberUpdate)
			r.Get("/{id}/messages", h.HandleSubscriberMessages)
			r.Post("/{id}/reply", h.HandleSubscriberReply)
		})

		api.Route("/lists", func(r chi.Router) {
			r.Get("/", h.HandleListsList)
			r.Post("/", h.HandleListsCreate)
			r.Put("/{id}", h.HandleListsUpdate)
			r.Delete("/{id}", h.HandleListsDelete)
			r.Post("/{id}/members", h.HandleListMembersAdd)
			r.Delete("/{id}/members/{subscriberId}", h.HandleListMembersRemove)
		})

		api.Route("/keywords", func(r chi.Router) {
			r.Get("/", h.HandleKeywordsList)
			r.Post("/", h.HandleKeywordsCreate)
			r.Put("/{id}", h.HandleKeywordsUpdate)
			r.Delete("/{id}", h.HandleKeywordsDelete)
		})

		api.Route("/inbox", func(r chi.Router) {
			r.Get("/", h.HandleInboxList)
			r.Get("/stats", h.HandleInboxStats)
		})
		api.Route("/conversations", func(r chi.Router) {
			r.Post("/mark-all-read", h.HandleMarkAllRead)
			r.Post("/{id}/mark-read", h.HandleMarkRead)
			r.Post("/{id}/mark-unread", h.HandleMarkUnread)
		})

		api.Route("/settings", func(r chi.Router) {
			r.Get("/", h.HandleSettingsGet)
			r.Put("/", h.HandleSettingsUpdate)
		})

		api.Get("/analytics", h.HandleAnalytics)

		api.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", h.HandleDashboardStats)
			r.Get("/messages", h.HandleDashboardMessages)
		})
	})

	return r
}
