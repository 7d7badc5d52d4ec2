package config

import (
	"fmt"
	"strings"

	"graphql-cascade/internal/naming"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors []ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (r *ValidationResult) add(field, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Hint: hint})
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	if c.Cascade.MaxDepth < 0 {
		result.add("cascade.max_depth", "must be non-negative", "0 tracks root entities only")
	}
	for i, t := range c.Cascade.ExcludeTypes {
		if strings.TrimSpace(t) == "" {
			result.add(fmt.Sprintf("cascade.exclude_types[%d]", i), "must not be empty", "")
		}
	}

	if c.Response.MaxResponseSizeMB <= 0 {
		result.add("response.max_response_size_mb", "must be positive", "")
	}
	if c.Response.MaxUpdatedEntities <= 0 {
		result.add("response.max_updated_entities", "must be positive", "")
	}
	if c.Response.MaxDeletedEntities <= 0 {
		result.add("response.max_deleted_entities", "must be positive", "")
	}
	if c.Response.MaxInvalidations <= 0 {
		result.add("response.max_invalidations", "must be positive", "")
	}

	switch c.Naming.PluralMode {
	case "", naming.PluralNaive, naming.PluralInflect:
	default:
		result.add("naming.plural_mode", fmt.Sprintf("unknown mode %q", c.Naming.PluralMode), "use naive or inflect")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		result.add("server.port", "must be between 0 and 65535", "")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		result.add("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level), "use debug, info, warn, or error")
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		result.add("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format), "use json or text")
	}

	if c.Observability.TraceSampleRatio < 0 || c.Observability.TraceSampleRatio > 1 {
		result.add("observability.trace_sample_ratio", "must be between 0 and 1", "")
	}
	switch strings.ToLower(c.Observability.OTLP.Protocol) {
	case "", "grpc", "http", "http/protobuf":
	default:
		result.add("observability.otlp.protocol", fmt.Sprintf("unknown protocol %q", c.Observability.OTLP.Protocol), "use grpc or http/protobuf")
	}

	return result
}
