package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oruko-mi/chat/internal/middleware"
	natsclient "github.com/oruko-mi/chat/internal/nats"
	"github.com/oruko-mi/chat/internal/service"
	"github.com/oruko-mi/chat/pkg/logger"
)

// RouterConfig collects what the HTTP surface depends on.
type RouterConfig struct {
	Controller  *service.Controller
	Broadcaster *service.Broadcaster
	NATS        *natsclient.Client
	Logger      *logger.Logger

	// Provider and CredentialConfigured feed the readiness check.
	Provider             string
	CredentialConfigured bool

	AuthSecret        string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the chi router for views, API and ops endpoints.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	// EventSource cannot send a bearer token, so with auth on the chat view
	// falls back to its meta refresh.
	views, err := NewViewHandler(cfg.Controller, log, cfg.AuthSecret == "")
	if err != nil {
		return nil, err
	}
	healthHandler := NewHealthHandler(cfg.NATS, cfg.Provider, cfg.CredentialConfigured)
	modelHandler := NewModelHandler(cfg.Controller)
	threadHandler := NewThreadHandler(cfg.Controller, log)
	messageHandler := NewMessageHandler(cfg.Controller, log)
	eventHandler := NewEventHandler(cfg.Controller, cfg.Broadcaster, log)

	submitLimit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
		submitLimit = middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Views
	r.Get("/", views.Landing)
	r.Route("/chat", func(r chi.Router) {
		r.Get("/", views.Chat)
		r.Post("/new", views.NewChat)
		r.Post("/select", views.Select)
		r.With(submitLimit).Post("/send", views.Send)
		r.Post("/sidebar", views.ToggleSidebar)
	})

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.Auth(cfg.AuthSecret))

		r.Get("/state", threadHandler.State)
		r.Get("/events", eventHandler.Stream)
		r.Get("/models", modelHandler.List)

		r.Route("/threads", func(r chi.Router) {
			r.Get("/", threadHandler.List)
			r.Post("/", threadHandler.Create)
			r.Get("/{id}", threadHandler.Get)
			r.Post("/{id}/select", threadHandler.Select)
		})

		r.With(submitLimit).Post("/messages", messageHandler.Submit)
	})

	return r, nil
}
