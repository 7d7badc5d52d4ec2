// Package config loads cascade configuration from files, environment
// variables, and flags, and validates it.
package config

import (
	"time"

	"graphql-cascade/internal/naming"
)

// Config holds the full application configuration.
type Config struct {
	Cascade       CascadeConfig       `mapstructure:"cascade"`
	Response      ResponseConfig      `mapstructure:"response"`
	Naming        naming.Config       `mapstructure:"naming"`
	Server        ServerConfig        `mapstructure:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// CascadeConfig holds the tracking defaults that @cascade directive
// arguments may override per mutation.
type CascadeConfig struct {
	// Enabled turns cascade interception off entirely when false.
	Enabled bool `mapstructure:"enabled"`
	// MaxDepth bounds relationship traversal; 0 tracks roots only.
	MaxDepth int `mapstructure:"max_depth"`
	// IncludeRelated enables relationship traversal.
	IncludeRelated bool `mapstructure:"include_related"`
	// AutoInvalidate is loaded and validated but not passed to the
	// interceptor: invalidation planning follows the @cascade autoInvalidate
	// argument (default true) alone.
	AutoInvalidate bool `mapstructure:"auto_invalidate"`
	// ExcludeTypes lists typenames never recorded or traversed, e.g.
	// audit-log and system-event types.
	ExcludeTypes []string `mapstructure:"exclude_types"`
}

// ResponseConfig bounds cascade payload size.
type ResponseConfig struct {
	MaxResponseSizeMB  float64 `mapstructure:"max_response_size_mb"`
	MaxUpdatedEntities int     `mapstructure:"max_updated_entities"`
	MaxDeletedEntities int     `mapstructure:"max_deleted_entities"`
	MaxInvalidations   int     `mapstructure:"max_invalidations"`
}

// ServerConfig holds demo server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// ObservabilityConfig holds OpenTelemetry settings.
type ObservabilityConfig struct {
	ServiceName      string        `mapstructure:"service_name"`
	ServiceVersion   string        `mapstructure:"service_version"`
	Environment      string        `mapstructure:"environment"`
	MetricsEnabled   bool          `mapstructure:"metrics_enabled"`
	TracingEnabled   bool          `mapstructure:"tracing_enabled"`
	LogExportEnabled bool          `mapstructure:"log_export_enabled"`
	TraceSampleRatio float64       `mapstructure:"trace_sample_ratio"`
	OTLP             OTLPConfig    `mapstructure:"otlp"`
}

// OTLPConfig holds OTLP exporter settings for traces and logs.
type OTLPConfig struct {
	Endpoint string            `mapstructure:"endpoint"`
	Protocol string            `mapstructure:"protocol"` // grpc, http/protobuf
	Insecure bool              `mapstructure:"insecure"`
	CAFile   string            `mapstructure:"ca_file"`
	CertFile string            `mapstructure:"cert_file"`
	KeyFile  string            `mapstructure:"key_file"`
	Headers  map[string]string `mapstructure:"headers"`
	Timeout  time.Duration     `mapstructure:"timeout"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Cascade: CascadeConfig{
			Enabled:        true,
			MaxDepth:       3,
			IncludeRelated: true,
			AutoInvalidate: true,
			ExcludeTypes:   []string{},
		},
		Response: ResponseConfig{
			MaxResponseSizeMB:  5.0,
			MaxUpdatedEntities: 500,
			MaxDeletedEntities: 100,
			MaxInvalidations:   50,
		},
		Naming: naming.DefaultConfig(),
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			ServiceName:      "graphql-cascade",
			ServiceVersion:   "dev",
			Environment:      "development",
			MetricsEnabled:   true,
			TraceSampleRatio: 1.0,
			OTLP: OTLPConfig{
				Endpoint: "localhost:4317",
				Protocol: "grpc",
				Insecure: true,
			},
		},
	}
}
