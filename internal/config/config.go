// Package config defines the configuration structure for the StreetPlan
// service and its operator CLI. Configuration is loaded once at process start
// and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// A missing required value or an invalid format fails startup.
package config

import (
	"log/slog"
	"strings"
	"time"

	"streetplan/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Domain Configurations
	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Security      SecurityConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"4000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s" validate:"gt=0"`
	// LambdaURL serves the router through a Lambda function URL instead of a socket.
	LambdaURL bool `envconfig:"LAMBDA_FUNCTION_URL" default:"false"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns        int32         `envconfig:"DB_MIN_CONNS" default:"1" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	ConnectTimeout  time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"5s"`
	ConnectRetries  uint64        `envconfig:"DB_CONNECT_RETRIES" default:"5"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"eu-west-1"`

	// DesignEventsQueueURL enables design.submitted events when set.
	DesignEventsQueueURL string `envconfig:"DESIGN_EVENTS_QUEUE_URL" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// SecurityConfig holds the admin token and CORS settings.
type SecurityConfig struct {
	// AdminToken may be plaintext or a bcrypt hash. Empty disables admin routes.
	AdminToken         SecretString `envconfig:"ADMIN_TOKEN"`
	CorsAllowedOrigins []string     `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ObservabilityConfig holds telemetry and monitoring settings.
type ObservabilityConfig struct {
	CloudWatchEnabled bool   `envconfig:"CLOUDWATCH_ENABLED" default:"false"`
	MetricNamespace   string `envconfig:"METRIC_NAMESPACE" default:"StreetPlan"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// SlogLevel maps LogLevel onto a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
