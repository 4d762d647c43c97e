// Package server is the ambient HTTP entry point that wraps the core
// engine as a library, per spec.md §1 ("the core is invoked as a
// library; the wrapping server maps engine events onto server-sent
// events") and SPEC_FULL.md §12. It owns no pipeline execution logic of
// its own: every request is translated into a pkg/pipeline /
// pkg/component / pkg/engine call and the result streamed or marshaled
// back.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/config"
	"github.com/ragnarok-labs/dataflow/pkg/health"
	"github.com/ragnarok-labs/dataflow/pkg/logging"
	"github.com/ragnarok-labs/dataflow/pkg/telemetry"
)

// Server is the HTTP API surface in front of the registry, pipeline, and
// engine packages.
type Server struct {
	cfg               *config.Config
	registry          *component.Registry
	httpServer        *http.Server
	healthChecker     *health.Checker
	telemetryProvider *telemetry.Provider
	logger            *logging.Logger
}

// New builds a Server that resolves pipeline JSON against registry and
// executes runs under cfg's resource limits.
func New(cfg *config.Config, registry *component.Registry) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("server: invalid config: %w", err)
	}

	logger := logging.New(logging.DefaultConfig())

	telemetryProvider, err := telemetry.NewProvider(context.Background(), telemetry.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("server: create telemetry provider: %w", err)
	}

	healthChecker := health.NewChecker("dataflow-engine", "0.1.0")
	healthChecker.RegisterCheck("registry", func(ctx context.Context) error {
		if registry == nil {
			return fmt.Errorf("no component registry configured")
		}
		return nil
	}, 5*time.Second, true)

	s := &Server{
		cfg:               cfg,
		registry:          registry,
		healthChecker:     healthChecker,
		telemetryProvider: telemetryProvider,
		logger:            logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.middlewareChain(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("/health/live", s.healthChecker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler())
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/components", s.handleListComponents)
	mux.HandleFunc("/api/v1/pipeline/validate", s.handleValidatePipeline)
	mux.HandleFunc("/api/v1/pipeline/execute", s.handleExecutePipeline)
}

func (s *Server) middlewareChain(handler http.Handler) http.Handler {
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	handler = s.requestIDMiddleware(handler)
	return s.corsMiddleware(handler)
}

// Start blocks serving HTTP until the listener is closed.
func (s *Server) Start() error {
	s.logger.WithField("address", s.cfg.Address).Info("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests and tears down telemetry.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown http: %w", err)
	}
	if err := s.telemetryProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown telemetry: %w", err)
	}
	s.logger.Info("server shutdown complete")
	return nil
}
