// Package server sets up the HTTP server, router, and all route
// definitions.
//
// This is the composition root: the database, services, and handlers are
// all constructed and wired here, in one place, rather than scattered
// across the codebase. main.go only loads config and calls New + Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/wordtrail/internal/auth"
	"github.com/sakif/wordtrail/internal/handler"
	"github.com/sakif/wordtrail/internal/middleware"
	sqliteRepo "github.com/sakif/wordtrail/internal/repository/sqlite"
	"github.com/sakif/wordtrail/internal/service"
)

// Config holds server configuration, loaded from the environment by main.
type Config struct {
	Port    int
	DBPath  string
	Version string

	// Auth. When JWTSecret is empty the auth and API routes are not
	// registered; the server still starts and serves the health check,
	// which keeps local runs possible without GitHub credentials.
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the whole dependency chain:
//
//	sqlite.DB → services (challenge, log) → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, the router gets handlers.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /api/health              → storage reachability + version
//	GET    /auth/github/login       → start the OAuth flow
//	GET    /auth/github/callback    → complete the OAuth flow
//	POST   /auth/logout             → clear the session cookie
//	GET    /api/session             → session state (works anonymously)
//	GET    /api/me                  → caller's profile
//	GET    /api/challenges          → list with totals
//	POST   /api/challenges          → create
//	PUT    /api/challenges/{id}     → update (returns recomputed total)
//	DELETE /api/challenges/{id}     → cascade delete
//	GET    /api/logs                → list (optional ?challengeId=)
//	POST   /api/logs                → day upsert (201 created / 200 updated)
//	PUT    /api/logs/{id}           → update by id
//	DELETE /api/logs/{id}           → delete by id
//
// Everything under /api except /api/health and /api/session requires a
// valid session.
func (s *Server) setupRoutes() error {
	// Global middleware, in order: request IDs for tracing, real client
	// IPs behind proxies, panic recovery, then our request logger.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	healthHandler := handler.NewHealthHandler(s.db, s.config.Version, s.logger)
	s.router.Get("/api/health", healthHandler.HandleHealth)

	if s.config.JWTSecret == "" {
		s.logger.Warn("JWT secret not configured, auth and API routes disabled")
		return nil
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	github := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	users := sqliteRepo.NewUserRepo(s.db)
	challenges := sqliteRepo.NewChallengeRepo(s.db)
	logs := sqliteRepo.NewLogRepo(s.db)

	challengeService := service.NewChallengeService(challenges, s.logger)
	logService := service.NewLogService(logs, challenges, s.logger)

	authHandler := handler.NewAuthHandler(github, tokens, users, s.logger)
	challengeHandler := handler.NewChallengeHandler(challengeService, users, s.logger)
	logHandler := handler.NewLogHandler(logService, users, s.logger)

	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	// Session state is readable anonymously; the handler answers
	// {"authenticated": false} instead of 401.
	s.router.With(auth.OptionalAuth(tokens)).Get("/api/session", authHandler.HandleSession)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)

		r.Get("/challenges", challengeHandler.HandleList)
		r.Post("/challenges", challengeHandler.HandleCreate)
		r.Put("/challenges/{id}", challengeHandler.HandleUpdate)
		r.Delete("/challenges/{id}", challengeHandler.HandleDelete)

		r.Get("/logs", logHandler.HandleList)
		r.Post("/logs", logHandler.HandleUpsert)
		r.Put("/logs/{id}", logHandler.HandleUpdate)
		r.Delete("/logs/{id}", logHandler.HandleDelete)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown:
//  1. Stop accepting new connections on SIGINT/SIGTERM
//  2. Wait up to 30s for in-flight requests to finish
//  3. Close the database connection
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("version", s.config.Version),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
