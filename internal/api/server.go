package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/foxzi/listdash/internal/config"
	"github.com/foxzi/listdash/internal/dashboard"
	"github.com/foxzi/listdash/internal/metrics"
	"github.com/foxzi/listdash/internal/ratelimit"
	"github.com/foxzi/listdash/internal/store"
)

// Server is the dashboard HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	service    *dashboard.Service
	config     *config.Config
	csrf       *csrfGuard
	logins     *ratelimit.Limiter
	views      *views
	logger     *slog.Logger
	startTime  time.Time
}

// NewServer creates a new dashboard server
func NewServer(service *dashboard.Service, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	csrf, err := newCSRFGuard(cfg.Dashboard.CSRFSecret)
	if err != nil {
		return nil, err
	}
	v, err := newViews()
	if err != nil {
		return nil, err
	}

	logins := ratelimit.NewLimiter(ratelimit.Config{
		FailuresPerIP:      cfg.Dashboard.Login.FailuresPerIP,
		FailuresPerAccount: cfg.Dashboard.Login.FailuresPerAccount,
		Window:             cfg.Dashboard.Login.Window,
	})

	s := &Server{
		router:    chi.NewRouter(),
		service:   service,
		config:    cfg,
		csrf:      csrf,
		logins:    logins,
		views:     v,
		logger:    logger,
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(metrics.HTTPMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)

	// Health check (no auth required)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/dashboard", func(r chi.Router) {
		r.Use(s.basicAuthMiddleware)

		r.Get("/", s.handleDashboard)
		r.Get("/events", s.handleEvents)
		r.Get("/tasks/reorder/{param}", s.handleReorderTasks)

		r.Group(func(r chi.Router) {
			r.Use(s.csrfMiddleware)

			r.Post("/", s.handleDashboardPost)
			r.Post("/tasks/{id}/priority/{priority}", s.handleSetPriority)
			r.Post("/tasks/{id}/discard", s.handleDiscardTask)
			r.Post("/lists/{list_id}/roles/{role}/{email}/remove", s.handleRemoveRole)
		})
	})

	// Admin API (API key required)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/domains", s.handleListDomains)
		r.Post("/domains", s.handleCreateDomain)
		r.Get("/lists", s.handleListLists)
		r.Post("/lists", s.handleCreateList)
		r.Get("/lists/{list_id}", s.handleGetList)
		r.Post("/lists/{list_id}/members", s.handleAddRole(store.RoleSubscriber))
		r.Post("/lists/{list_id}/owners", s.handleAddRole(store.RoleOwner))
		r.Post("/lists/{list_id}/moderators", s.handleAddRole(store.RoleModerator))
		r.Get("/requests", s.handleListRequests)
		r.Post("/requests", s.handleCreateRequest)
		r.Delete("/requests/{id}", s.handleResolveRequest)
	})
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddr,
		Handler:        s.router,
		ReadTimeout:    s.config.API.ReadTimeout,
		WriteTimeout:   s.config.API.WriteTimeout,
		IdleTimeout:    s.config.API.IdleTimeout,
		MaxHeaderBytes: s.config.API.MaxHeaderBytes,
	}

	s.logger.Info("starting dashboard server", "addr", s.config.Server.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down dashboard server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
