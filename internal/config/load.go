package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var defineFlagsOnce sync.Once

// envBindings maps canonical config keys to the documented CASCADE_*
// environment variables. These names are part of the configuration contract,
// so they are bound explicitly instead of being derived from section paths.
var envBindings = map[string]string{
	"cascade.enabled":                "CASCADE_ENABLED",
	"cascade.max_depth":              "CASCADE_MAX_DEPTH",
	"cascade.include_related":        "CASCADE_INCLUDE_RELATED",
	"cascade.auto_invalidate":        "CASCADE_AUTO_INVALIDATE",
	"cascade.exclude_types":          "CASCADE_EXCLUDE_TYPES",
	"response.max_response_size_mb":  "CASCADE_MAX_RESPONSE_SIZE_MB",
	"response.max_updated_entities":  "CASCADE_MAX_UPDATED_ENTITIES",
	"response.max_deleted_entities":  "CASCADE_MAX_DELETED_ENTITIES",
	"response.max_invalidations":     "CASCADE_MAX_INVALIDATIONS",
	"naming.plural_mode":             "CASCADE_PLURAL_MODE",
	"server.host":                    "CASCADE_SERVER_HOST",
	"server.port":                    "CASCADE_SERVER_PORT",
	"logging.level":                  "CASCADE_LOG_LEVEL",
	"logging.format":                 "CASCADE_LOG_FORMAT",
	"observability.otlp.endpoint":    "CASCADE_OTLP_ENDPOINT",
	"observability.otlp.protocol":    "CASCADE_OTLP_PROTOCOL",
	"observability.tracing_enabled":  "CASCADE_TRACING_ENABLED",
	"observability.metrics_enabled":  "CASCADE_METRICS_ENABLED",
	"observability.environment":      "CASCADE_ENVIRONMENT",
	"observability.service_version":  "CASCADE_SERVICE_VERSION",
}

func defineFlags() {
	defineFlagsOnce.Do(func() {
		pflag.String("config", "", "path to config file (YAML or JSON)")
		pflag.Int("max-depth", 0, "default cascade traversal depth")
		pflag.String("addr", "", "listen address host:port")
		pflag.String("log-level", "", "log level (debug, info, warn, error)")
		pflag.String("log-format", "", "log format (json, text)")
	})
}

// Load reads configuration with the following precedence:
// 1. Command line flags
// 2. Environment variables (CASCADE_ prefix)
// 3. Config file
// 4. Default values
func Load() (*Config, error) {
	defineFlags()
	if !pflag.Parsed() {
		pflag.Parse()
	}
	cfgPath, _ := pflag.CommandLine.GetString("config")
	return load(cfgPath, pflag.CommandLine)
}

// LoadFile reads configuration from an explicit file plus environment
// variables and defaults, without consulting command line flags.
func LoadFile(path string) (*Config, error) {
	return load(path, nil)
}

func load(cfgPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("cascade")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/graphql-cascade/")
		v.AddConfigPath("$HOME/.graphql-cascade")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if flags != nil {
		bindChangedFlags(v, flags)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if result := cfg.Validate(); result.HasErrors() {
		return nil, fmt.Errorf("invalid configuration: %s", result.Error())
	}
	return cfg, nil
}

func bindChangedFlags(v *viper.Viper, flags *pflag.FlagSet) {
	if flags.Changed("max-depth") {
		depth, _ := flags.GetInt("max-depth")
		v.Set("cascade.max_depth", depth)
	}
	if flags.Changed("addr") {
		addr, _ := flags.GetString("addr")
		host, port, ok := strings.Cut(addr, ":")
		if ok {
			v.Set("server.host", host)
			v.Set("server.port", port)
		}
	}
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		v.Set("logging.level", level)
	}
	if flags.Changed("log-format") {
		format, _ := flags.GetString("log-format")
		v.Set("logging.format", format)
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("cascade.enabled", d.Cascade.Enabled)
	v.SetDefault("cascade.max_depth", d.Cascade.MaxDepth)
	v.SetDefault("cascade.include_related", d.Cascade.IncludeRelated)
	v.SetDefault("cascade.auto_invalidate", d.Cascade.AutoInvalidate)
	v.SetDefault("cascade.exclude_types", d.Cascade.ExcludeTypes)

	v.SetDefault("response.max_response_size_mb", d.Response.MaxResponseSizeMB)
	v.SetDefault("response.max_updated_entities", d.Response.MaxUpdatedEntities)
	v.SetDefault("response.max_deleted_entities", d.Response.MaxDeletedEntities)
	v.SetDefault("response.max_invalidations", d.Response.MaxInvalidations)

	v.SetDefault("naming.plural_mode", string(d.Naming.PluralMode))

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("observability.service_name", d.Observability.ServiceName)
	v.SetDefault("observability.service_version", d.Observability.ServiceVersion)
	v.SetDefault("observability.environment", d.Observability.Environment)
	v.SetDefault("observability.metrics_enabled", d.Observability.MetricsEnabled)
	v.SetDefault("observability.tracing_enabled", d.Observability.TracingEnabled)
	v.SetDefault("observability.log_export_enabled", d.Observability.LogExportEnabled)
	v.SetDefault("observability.trace_sample_ratio", d.Observability.TraceSampleRatio)
	v.SetDefault("observability.otlp.endpoint", d.Observability.OTLP.Endpoint)
	v.SetDefault("observability.otlp.protocol", d.Observability.OTLP.Protocol)
	v.SetDefault("observability.otlp.insecure", d.Observability.OTLP.Insecure)
}
