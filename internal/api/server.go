// Package api provides the HTTP transport for ShopMate: authentication,
// the chat endpoint, and cart management, all as JSON over chi.
package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/shopmate-ai/shopmate/internal/chat"
	"github.com/shopmate-ai/shopmate/internal/config"
	"github.com/shopmate-ai/shopmate/internal/database"
	"github.com/shopmate-ai/shopmate/internal/logger"
	"github.com/shopmate-ai/shopmate/internal/metrics"
)

// Server wires the chat service and store into HTTP routes.
type Server struct {
	router *chi.Mux
	logger *slog.Logger
	chat   *chat.Service
	store  database.Store
	cfg    *config.Config
}

// NewServer builds the router with logging, CORS, and metrics middleware and
// registers all routes.
func NewServer(cfg *config.Config, log *slog.Logger, store database.Store, chatSvc *chat.Service) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		router: chi.NewRouter(),
		logger: log.With("component", "api"),
		chat:   chatSvc,
		store:  store,
		cfg:    cfg,
	}

	s.router.Use(logger.Middleware(log))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	s.router.Use(s.observeDuration)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/chat", s.handleChat)
			r.Get("/chat/history", s.handleChatHistory)
			r.Post("/add-to-cart", s.handleAddToCart)
			r.Post("/clear-chat", s.handleClearChat)
		})

		// Deliberately outside requireUser: an anonymous caller gets 0.
		r.Get("/cart-count", s.handleCartCount)
	})

	return s
}

// Router returns the HTTP handler for serving.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) observeDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
