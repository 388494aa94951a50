// Package server exposes the detection-geometry pipeline over HTTP for
// hosts that prefer a service boundary to the in-process API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quadra-ocr/quadra/internal/config"
	"github.com/quadra-ocr/quadra/internal/pipeline"
)

// Server wraps the pipeline behind an HTTP API.
type Server struct {
	pipeline    *pipeline.Pipeline
	httpServer  *http.Server
	maxUploadMB int64
}

// New creates a server from the given configuration.
func New(cfg config.ServerConfig, p *pipeline.Pipeline) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline is nil")
	}
	s := &Server{
		pipeline:    p,
		maxUploadMB: int64(cfg.MaxUploadMB),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/detect", s.withMetrics(s.detectHandler))
	mux.HandleFunc("/crop", s.withMetrics(s.cropHandler))
	mux.HandleFunc("/ws/detect", s.detectWebSocketHandler)
	mux.HandleFunc("/healthz", s.withMetrics(s.healthHandler))
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.TimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.TimeoutSec) * time.Second,
	}
	return s, nil
}

// Addr returns the address the server is configured to listen on.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Handler returns the server's HTTP handler, for tests using httptest.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
