// Package app is the composition root: it turns a config.Config into the
// running object graph every command shares.
//
//	config → sqlite cache ─┐
//	         github client ┴→ UserService ─┐
//	         connectivity check ───────────┴→ UsersViewModel
//	         prometheus registry → metrics.Recorder
//
// `serve` puts an HTTP server in front of the result, `browse` a terminal
// UI, and `list` drives the view-model once and prints what it published.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/github-users/internal/auth"
	"github.com/sakif/github-users/internal/config"
	"github.com/sakif/github-users/internal/connectivity"
	"github.com/sakif/github-users/internal/github"
	"github.com/sakif/github-users/internal/metrics"
	sqliteRepo "github.com/sakif/github-users/internal/repository/sqlite"
	"github.com/sakif/github-users/internal/server"
	"github.com/sakif/github-users/internal/service"
	"github.com/sakif/github-users/internal/viewmodel"
)

// Options tweak how the graph is built, independent of the environment.
type Options struct {
	// Offline forces the connectivity check to fail, e.g. to demo the
	// failure state.
	Offline bool
	// NoCache keeps the cache in memory for this run only.
	NoCache bool
	// Checker replaces the TCP dial check. Tests use connectivity.Static.
	Checker connectivity.Checker
}

// App owns every long-lived dependency. Close releases them in reverse
// order of creation.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Recorder
	Service  *service.UserService
	Users    *viewmodel.UsersViewModel
	Tokens   *auth.TokenService // nil when JWT_SECRET is unset

	db *sqliteRepo.DB
}

// NewLogger builds the process logger: text output at the configured level.
func NewLogger(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// New wires the application. On error nothing is left open.
func New(cfg config.Config, opts Options, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	// === CACHE ===
	dbPath := cfg.DBPath
	if opts.NoCache {
		dbPath = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sqliteRepo.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	a.db = db

	// === GITHUB ===
	client, err := github.New(github.Config{
		BaseURL: cfg.GitHubAPIURL,
		Token:   cfg.GitHubToken,
		Timeout: cfg.HTTPTimeout,
		PerPage: cfg.GitHubPerPage,
	}, logger.With(slog.String("component", "github")))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}

	a.Service = service.NewUserService(client, db, logger.With(slog.String("component", "service")))

	// === CONNECTIVITY ===
	checker := opts.Checker
	switch {
	case checker != nil:
	case opts.Offline:
		checker = connectivity.Static(false)
	default:
		checker = connectivity.NewDialChecker(cfg.ConnectivityAddr, cfg.ConnectivityTimeout, logger)
	}

	// === METRICS ===
	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	// === AUTH ===
	if cfg.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.Tokens = tokens
	}

	// === VIEW-MODEL ===
	a.Users = viewmodel.New(checker, a.Service, logger.With(slog.String("component", "viewmodel")),
		viewmodel.WithMetrics(a.Metrics),
	)

	return a, nil
}

// Server builds the HTTP server around the app.
func (a *App) Server() (*server.Server, error) {
	if a.Tokens == nil {
		a.Logger.Warn("JWT_SECRET not set: fetch endpoints are open")
	}
	return server.New(server.Config{Port: a.Config.Port}, server.Deps{
		Users:      a.Users,
		Lookup:     a.Service,
		Tokens:     a.Tokens,
		Metrics:    a.Metrics,
		Gatherer:   a.Registry,
		OnShutdown: a.Users.Close,
	}, a.Logger)
}

// Close stops the view-model (cancelling any fetch) and then closes the
// cache. Safe to call more than once.
func (a *App) Close() error {
	a.Users.Close()

	if a.db == nil {
		return nil
	}
	db := a.db
	a.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}
	return nil
}
