// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer between handlers, middleware and routes:
// it decides which URL maps to which handler, what middleware runs where,
// and how the server starts and stops.
//
// Everything it serves is built elsewhere (internal/app) and passed in
// through Deps, so tests can stand up the whole router around fakes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/github-users/internal/auth"
	"github.com/sakif/github-users/internal/handler"
	"github.com/sakif/github-users/internal/metrics"
	"github.com/sakif/github-users/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Port int
}

// Deps are the collaborators the routes are built from.
type Deps struct {
	Users    handler.UsersModel
	Lookup   handler.UserLookup
	Tokens   *auth.TokenService // nil leaves the fetch endpoints open
	Metrics  *metrics.Recorder
	Gatherer prometheus.Gatherer // source for /metrics; nil disables the route

	// OnShutdown runs when shutdown begins, before in-flight requests are
	// drained. Closing the view-model here ends every open event stream,
	// which would otherwise hold Shutdown until its timeout.
	OnShutdown func()
}

// Server represents the HTTP server and its router.
type Server struct {
	router *chi.Mux
	config Config
	deps   Deps
	logger *slog.Logger
}

// New creates a Server and registers all routes.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		deps:   deps,
		logger: logger,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                    → users list page (HTML), first visit fetches
// POST   /refresh             → reload from the page, redirects to /      [auth]
// GET    /users/{login}       → user details page (HTML)
// GET    /api/users           → current users state (JSON)
// POST   /api/users/fetch     → start a fetch, 202 + Loading             [auth]
// GET    /api/users/stream    → users states as Server-Sent Events
// GET    /api/users/{login}   → one user (JSON)
// GET    /metrics             → Prometheus
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID, RealIP: request identity for the logs
// 2. Recoverer: a panic becomes a 500 instead of a crash
// 3. Logger, Metrics: wrap the rest so they see the final status
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.deps.Metrics))

	pages, err := handler.NewPagesHandler(s.deps.Users, s.deps.Lookup, s.logger)
	if err != nil {
		return fmt.Errorf("creating pages handler: %w", err)
	}
	users := handler.NewUsersHandler(s.deps.Users, s.deps.Lookup, s.logger)
	requireAuth := auth.RequireAuth(s.deps.Tokens)

	s.router.Get("/", pages.HandleHome)
	s.router.With(requireAuth).Post("/refresh", pages.HandleRefresh)
	s.router.Get("/users/{login}", pages.HandleDetails)

	s.router.Route("/api/users", func(r chi.Router) {
		r.Get("/", users.HandleState)
		r.With(requireAuth).Post("/fetch", users.HandleFetch)
		r.Get("/stream", users.HandleStream)
		r.Get("/cached", users.HandleCached)
		r.Get("/{login}", users.HandleGetUser)
	})

	if s.deps.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return nil
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully:
//  1. OnShutdown runs (the view-model closes, event streams end)
//  2. New connections are refused
//  3. In-flight requests get shutdownTimeout to finish
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.Bool("auth", s.deps.Tokens != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		if s.deps.OnShutdown != nil {
			s.deps.OnShutdown()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
