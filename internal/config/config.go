// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and COMPASS_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// MaxUploadBytes caps the size of an uploaded export.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MissingTapDetailLimit caps missing-tap details per analysis.
	MissingTapDetailLimit int `koanf:"missing_tap_detail_limit"`

	// StoreDriver selects the user stats store: memory, sqlite, postgres or mongo.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the connection string of the sqlite, postgres and mongo drivers.
	StoreDSN string `koanf:"store_dsn"`

	// MongoDatabase names the Mongo database holding the user_stats collection.
	MongoDatabase string `koanf:"mongo_database"`

	// StoreTimeoutMS bounds every store operation.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// TracingEndpoint is the OTLP/HTTP collector; empty disables export.
	TracingEndpoint string `koanf:"tracing_endpoint"`

	// TracingInsecure disables TLS towards the collector.
	TracingInsecure bool `koanf:"tracing_insecure"`

	// ServiceName is reported on traces.
	ServiceName string `koanf:"service_name"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":8000",
		MaxUploadBytes:        10 << 20,
		MissingTapDetailLimit: 10,
		StoreDriver:           "memory",
		MongoDatabase:         "compass_wrapped",
		StoreTimeoutMS:        5000,
		CORSAllowedOrigins:    []string{"*"},
		ServiceName:           "compass-wrapped",
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.StoreTimeoutMS <= 0:
		return fmt.Errorf("%w: store_timeout_ms must be positive", ErrInvalidConfig)
	case c.MissingTapDetailLimit < 0:
		return fmt.Errorf("%w: missing_tap_detail_limit must not be negative", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case "memory":
	case "sqlite", "postgres", "mongo":
		if c.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
