// Package core provides the API chassis for the StreetPlan service.
// It creates a chi router usable both as a standard HTTP server (local dev)
// and behind a Lambda function URL. It enforces cross-cutting concerns
// (panic recovery, logging, observability, admin authentication and error
// formatting) before requests reach domain-specific handlers.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"streetplan/internal/config"
)

// MetricsCollector defines the interface for recording API telemetry.
// Implementations record request latency and count metrics to CloudWatch
// or equivalent backends.
type MetricsCollector interface {
	// RecordRequest records API request metrics including latency and count.
	// Uses metric constants MetricAPILatency and MetricAPIRequestCount
	// from the types package.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Middleware is the standard net/http middleware shape.
type Middleware = func(http.Handler) http.Handler

// RouteRegistrar mounts a handler's routes on the /api router. admin must
// wrap every route that requires the admin token.
type RouteRegistrar func(r chi.Router, admin Middleware)

// Server encapsulates all dependencies for the HTTP API, allowing for
// easy injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config        *config.Config
	Logger        *slog.Logger
	Validator     *Validator
	Metrics       MetricsCollector
	Authenticator AdminAuthenticator

	// Populated by the entry point before MountRoutes.
	APIRouteRegistrars []RouteRegistrar
	HealthProbes       []HealthProbe
	MetricsHandler     http.Handler

	// OnShutdown runs in order during Shutdown (pool close, metric flush).
	OnShutdown []func(ctx context.Context) error

	// Internal router
	router *chi.Mux
}

// NewServer initializes dependencies and prepares the server for route
// mounting. It fails fast on missing critical dependencies.
//
// The caller is responsible for mounting routes (via MountRoutes) after
// construction. This separation allows tests to customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config:        cfg,
		Logger:        logger,
		Validator:     NewValidator(logger),
		Authenticator: NewTokenAuthenticator(cfg.Security.AdminToken),
		router:        chi.NewRouter(),
	}

	return s, nil
}

// Handler returns the http.Handler interface for the router.
// Used by http.Server (local) and lambdaurl.Start (Lambda).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown runs the registered shutdown hooks. All hooks run even when one
// fails; the errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	var errs []error
	for _, fn := range s.OnShutdown {
		if err := fn(ctx); err != nil {
			s.Logger.Error("shutdown hook failed", "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %w", errors.Join(errs...))
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
