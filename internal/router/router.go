package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jamshare/backend/internal/broker"
	"github.com/jamshare/backend/internal/catalog"
	"github.com/jamshare/backend/internal/config"
	"github.com/jamshare/backend/internal/engine"
	"github.com/jamshare/backend/internal/handlers"
	"github.com/jamshare/backend/internal/middleware"
	"github.com/jamshare/backend/internal/presence"
	"github.com/jamshare/backend/internal/store"
)

// Deps carries the long-lived components the router wires handlers onto.
type Deps struct {
	Store      store.Store
	Presence   *presence.Tracker
	Broker     *broker.Broker
	Controller *engine.Controller
	Catalog    *catalog.Client
}

// New builds the HTTP handler tree.
func New(cfg *config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	realIP := middleware.NewRealIPMiddleware(cfg.TrustedProxies)

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(realIP.Handler)
	r.Use(middleware.RequestContextMiddleware)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// Handlers
	configHandler := handlers.NewConfigHandler(cfg)
	sessionHandler := handlers.NewSessionHandler(d.Store, d.Presence, d.Controller)
	sseHandler := handlers.NewSSEHandler(d.Broker, d.Store, d.Presence, cfg.HeartbeatInterval)
	wsHandler := handlers.NewWSHandler(d.Broker, d.Store, d.Presence, originChecker(cfg.CORSAllowedOrigins))
	catalogHandler := handlers.NewCatalogHandler(d.Catalog)

	// Rate limiter for the expensive endpoints
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Public client configuration (heartbeat/poll intervals)
		r.Get("/config", configHandler.PublicConfig)

		// Session management
		r.Route("/sessions", func(r chi.Router) {
			r.With(rateLimiter.Middleware).Post("/", sessionHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.SessionContextMiddleware)

				r.Get("/", sessionHandler.Get)
				r.Post("/", sessionHandler.Mutate)
				r.Get("/events", sseHandler.Stream)
				r.Get("/ws", wsHandler.Stream)
			})
		})

		// Catalog proxy (rate limited search)
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/files", catalogHandler.ListFiles)
			r.Get("/files/{folderId}", catalogHandler.ListFiles)
			r.With(rateLimiter.Middleware).Get("/search", catalogHandler.Search)
			r.Get("/stream/{fileId}", catalogHandler.StreamURL)
		})
	})

	return r
}

// originChecker accepts websocket upgrades from the configured CORS origins
// and from same-origin requests (no Origin header).
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return allowed[origin]
	}
}
