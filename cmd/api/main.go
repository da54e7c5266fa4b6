// Package main is the entry point for the StreetPlan API server.
//
// It loads the configuration, connects to PostgreSQL, wires the repositories,
// event publisher and telemetry into the HTTP chassis, and serves requests.
//
// With LAMBDA_FUNCTION_URL=true the router is served through a Lambda
// function URL; otherwise it runs as a standard HTTP server on the configured
// port with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambdaurl"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"streetplan/internal/api/handlers"
	"streetplan/internal/config"
	"streetplan/internal/core"
	"streetplan/internal/db"
	"streetplan/internal/events"
	"streetplan/internal/telemetry"
)

// metricFlushInterval is how often buffered CloudWatch datums are sent.
const metricFlushInterval = 60 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.SlogLevel())
	logger.Info("streetplan API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"lambda_url", cfg.Server.LambdaURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Server.LambdaURL || isLambdaEnvironment() {
		logger.Info("serving through Lambda function URL")
		lambdaurl.Start(srv.Handler())
		return nil
	}

	return runHTTPServer(ctx, srv, cfg, logger)
}

// buildServer connects the backing services and mounts every route.
func buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*core.Server, error) {
	pool, err := db.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.OnShutdown = append(srv.OnShutdown, func(context.Context) error {
		pool.Close()
		return nil
	})
	srv.HealthProbes = append(srv.HealthProbes, db.NewHealthProbe(pool))

	registry := telemetry.NewRegistry()
	srv.MetricsHandler = registry.Handler()
	recorders := telemetry.Fanout{registry}

	publisher := events.Publisher(events.NoopPublisher{})

	if cfg.AWS.DesignEventsQueueURL != "" || cfg.Observability.CloudWatchEnabled {
		awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			pool.Close()
			return nil, err
		}

		if cfg.AWS.DesignEventsQueueURL != "" {
			sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			publisher = events.NewSQSPublisher(sqsClient, cfg.AWS.DesignEventsQueueURL, logger)
			logger.Info("design events enabled", "queue_url", cfg.AWS.DesignEventsQueueURL)
		}

		if cfg.Observability.CloudWatchEnabled {
			cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			cw := telemetry.NewCloudWatchCollector(cwClient, cfg.Observability.MetricNamespace, logger)
			recorders = append(recorders, cw)

			flushCtx, cancelFlush := context.WithCancel(context.WithoutCancel(ctx))
			done := make(chan struct{})
			go func() {
				defer close(done)
				cw.Run(flushCtx, metricFlushInterval)
			}()
			srv.OnShutdown = append(srv.OnShutdown, func(shutdownCtx context.Context) error {
				cancelFlush()
				select {
				case <-done:
					return nil
				case <-shutdownCtx.Done():
					return shutdownCtx.Err()
				}
			})
		}
	}
	srv.Metrics = recorders

	projects := db.NewProjectRepository(pool)
	designs := db.NewDesignRepository(pool)

	projectHandler := handlers.NewProjectHandler(projects, srv.Validator, logger)
	designHandler := handlers.NewDesignHandler(projects, designs, publisher, registry, srv.Validator, logger)
	simulateHandler := handlers.NewSimulateHandler(projects, registry, srv.Validator, logger)
	insightsHandler := handlers.NewInsightsHandler(projects, designs, registry, logger)

	srv.APIRouteRegistrars = append(srv.APIRouteRegistrars,
		projectHandler.Routes,
		designHandler.Routes,
		simulateHandler.Routes,
		insightsHandler.Routes,
	)

	srv.MountRoutes()
	return srv, nil
}

// loadAWSConfig resolves credentials from the default chain.
func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	return hasRuntimeAPI
}

// runHTTPServer serves until ctx is cancelled, then shuts down gracefully.
func runHTTPServer(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with a 10-second deadline.
	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates the process-wide JSON logger.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
