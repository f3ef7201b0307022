// Package main is the entry point for the wordtrail server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars, flags, or config files)
// 2. Create dependencies (logger, database connections, etc.)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
// This separation makes the app testable and its components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// A project might have multiple executables (e.g., cmd/server, cmd/migrate, cmd/cli).
// Each gets its own directory with its own main.go.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/wordtrail/internal/server"
)

// version is reported by /api/health. Overridable at build time:
//
//	go build -ldflags "-X main.version=1.2.0" ./cmd/server
var version = "1.0.0"

func main() {
	// === 1. LOAD .env (IF PRESENT) ===
	// godotenv.Load reads KEY=VALUE pairs from a .env file into the process
	// environment. Real env vars take precedence over the file, and a missing
	// file is not an error — production deployments set env vars directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	// === 2. SET UP LOGGING ===
	// slog.New creates a structured logger. slog.NewTextHandler outputs human-readable logs.
	// os.Stdout means logs go to the terminal. slog.LevelDebug enables all log levels.
	//
	// Log levels (from least to most severe): Debug → Info → Warn → Error
	// In production, you'd use LevelInfo or LevelWarn to reduce noise.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// === 3. READ CONFIGURATION ===
	// We read the port from the PORT environment variable, defaulting to 8080.
	// os.Getenv returns "" if the variable isn't set, so we check and provide a default.
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// === 4. DATABASE PATH ===
	// Default to "data/wordtrail.db" in the project root.
	// DB_PATH env var allows overriding for production deployments.
	// Example: DB_PATH=/var/lib/wordtrail/prod.db
	dbPath := "data/wordtrail.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// Ensure the data directory exists.
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 5. AUTH CONFIGURATION ===
	// JWT_SECRET must be a long random string. Use:
	//   JWT_SECRET=$(openssl rand -hex 32)
	// If unset, auth is disabled (server still starts, only /api/health is registered).
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Warn("JWT_SECRET not set — authentication is disabled")
	}

	githubClientID := os.Getenv("GITHUB_CLIENT_ID")
	githubClientSecret := os.Getenv("GITHUB_CLIENT_SECRET")
	githubCallbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if githubCallbackURL == "" {
		githubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	// === 6. CREATE AND START THE SERVER ===
	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		Version:            version,
		JWTSecret:          jwtSecret,
		GitHubClientID:     githubClientID,
		GitHubClientSecret: githubClientSecret,
		GitHubCallbackURL:  githubCallbackURL,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
