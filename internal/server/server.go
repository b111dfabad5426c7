// Package server exposes the guidance engine over HTTP: search, triage,
// protocol playback, and session management under /api/v1.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/service"
)

// Server wraps the service with the HTTP transport.
type Server struct {
	svc     *service.Service
	logger  *slog.Logger
	version string
}

// New creates a server over the given service.
func New(svc *service.Service, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger, version: version}
}

// Handler builds the routed handler with logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/search", s.handleSearch)
	mux.HandleFunc("POST /api/v1/triage", s.handleTriage)
	mux.HandleFunc("POST /api/v1/next_step", s.handleNextStep)

	mux.HandleFunc("POST /api/v1/session/reset", s.handleSessionReset)
	mux.HandleFunc("GET /api/v1/session/{id}", s.handleSessionStatus)

	mux.HandleFunc("GET /api/v1/protocols", s.handleProtocols)
	mux.HandleFunc("GET /api/v1/protocols/{id}", s.handleProtocol)

	mux.HandleFunc("POST /api/v1/reload", s.handleReload)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)

	return s.recoverMiddleware(s.logMiddleware(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
