// Package server provides the HTTP server and routing for the simulator.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/horizon/internal/di"
	historicalhandlers "github.com/aristath/horizon/internal/modules/historical/handlers"
	runshandlers "github.com/aristath/horizon/internal/modules/runs/handlers"
	"github.com/aristath/horizon/internal/scheduler"
)

// Simulation requests run synchronously and can take far longer than a lookup.
const (
	requestTimeout    = 60 * time.Second
	simulationTimeout = 30 * time.Minute
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Container *di.Container // DI container with all services
	Jobs      *di.JobInstances
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	var refreshJob, checkJob scheduler.Job
	if cfg.Jobs != nil {
		// Typed nil pointers must not leak into the interfaces.
		if cfg.Jobs.RefreshSimulation != nil {
			refreshJob = cfg.Jobs.RefreshSimulation
		}
		if cfg.Jobs.CheckHistoryDatabase != nil {
			checkJob = cfg.Jobs.CheckHistoryDatabase
		}
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		port:      cfg.Port,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Container.HistoryDB,
			cfg.Container.Engine,
			cfg.Container.PathStore,
			refreshJob,
			checkJob,
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: simulationTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.With(middleware.Timeout(requestTimeout)).Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			// System monitoring and manual job triggers
			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
			r.Route("/jobs", func(r chi.Router) {
				r.Post("/refresh-simulation", s.systemHandlers.HandleTriggerRefreshSimulation)
				r.Post("/check-history-database", s.systemHandlers.HandleTriggerCheckHistoryDatabase)
			})

			historicalhandlers.NewHandler(s.container.ReturnsRepo, s.log).RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(simulationTimeout))
			runshandlers.NewHandler(s.container.RunService, s.log).RegisterRoutes(r)
		})
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
