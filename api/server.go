// Package api provides the HTTP REST API for Lectern.
//
// Endpoints:
//   - POST /api/query          - answer a query (tool-assisted)
//   - GET  /api/courses        - course statistics
//   - POST /api/sessions/clear - reset a conversation
//   - GET  /health             - liveness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoint
//   - query.go: query endpoint
//   - courses.go: course statistics endpoint
//   - session.go: session management endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to block Slowloris-style clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Query answers wait on the model provider, so this stays generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum wait for the next keep-alive request.
	IdleTimeout = 120 * time.Second
)

// ServerConfig contains the collaborators for creating the API server.
type ServerConfig struct {
	Logger   *slog.Logger
	Answerer Answerer       // Required
	Stats    StatsProvider  // Required
	Sessions SessionClearer // Required
}

// Server is the HTTP server for Lectern's REST API.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{mux: mux, logger: logger}

	qh := &queryHandler{answerer: cfg.Answerer, logger: logger}
	mux.HandleFunc("POST /api/query", qh.query)

	ch := &coursesHandler{stats: cfg.Stats, logger: logger}
	mux.HandleFunc("GET /api/courses", ch.courses)

	sh := &sessionHandler{sessions: cfg.Sessions, logger: logger}
	mux.HandleFunc("POST /api/sessions/clear", sh.clear)

	mux.HandleFunc("GET /health", health)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery -> logging -> handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
