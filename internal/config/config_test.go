package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphql-cascade/internal/naming"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Cascade.Enabled)
	assert.Equal(t, 3, cfg.Cascade.MaxDepth)
	assert.True(t, cfg.Cascade.IncludeRelated)
	assert.True(t, cfg.Cascade.AutoInvalidate)
	assert.Equal(t, 5.0, cfg.Response.MaxResponseSizeMB)
	assert.Equal(t, 500, cfg.Response.MaxUpdatedEntities)
	assert.Equal(t, 100, cfg.Response.MaxDeletedEntities)
	assert.Equal(t, 50, cfg.Response.MaxInvalidations)
	assert.False(t, Default().Validate().HasErrors())
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cascade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cascade:
  max_depth: 5
  exclude_types:
    - AuditLog
    - SystemEvent
response:
  max_updated_entities: 250
logging:
  level: debug
  format: text
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Cascade.MaxDepth)
	assert.Equal(t, []string{"AuditLog", "SystemEvent"}, cfg.Cascade.ExcludeTypes)
	assert.Equal(t, 250, cfg.Response.MaxUpdatedEntities)
	// Unset keys keep their defaults.
	assert.Equal(t, 100, cfg.Response.MaxDeletedEntities)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cascade.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cascade": {"max_depth": 1}}`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Cascade.MaxDepth)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvVars(t *testing.T) {
	t.Setenv("CASCADE_MAX_DEPTH", "7")
	t.Setenv("CASCADE_MAX_RESPONSE_SIZE_MB", "2.5")
	t.Setenv("CASCADE_EXCLUDE_TYPES", "AuditLog,SystemEvent")
	t.Setenv("CASCADE_LOG_LEVEL", "warn")

	cfg, err := load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Cascade.MaxDepth)
	assert.Equal(t, 2.5, cfg.Response.MaxResponseSizeMB)
	assert.Equal(t, []string{"AuditLog", "SystemEvent"}, cfg.Cascade.ExcludeTypes)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_InvalidEnvRejected(t *testing.T) {
	t.Setenv("CASCADE_MAX_DEPTH", "-1")

	_, err := load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cascade.max_depth")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative depth", func(c *Config) { c.Cascade.MaxDepth = -2 }, "cascade.max_depth"},
		{"zero size", func(c *Config) { c.Response.MaxResponseSizeMB = 0 }, "response.max_response_size_mb"},
		{"zero updated cap", func(c *Config) { c.Response.MaxUpdatedEntities = 0 }, "response.max_updated_entities"},
		{"zero deleted cap", func(c *Config) { c.Response.MaxDeletedEntities = 0 }, "response.max_deleted_entities"},
		{"zero invalidations cap", func(c *Config) { c.Response.MaxInvalidations = 0 }, "response.max_invalidations"},
		{"blank exclude type", func(c *Config) { c.Cascade.ExcludeTypes = []string{" "} }, "cascade.exclude_types"},
		{"bad plural mode", func(c *Config) { c.Naming.PluralMode = "latin" }, "naming.plural_mode"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad sample ratio", func(c *Config) { c.Observability.TraceSampleRatio = 2 }, "observability.trace_sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			result := cfg.Validate()
			require.True(t, result.HasErrors())
			assert.Contains(t, result.Error(), tt.wantErr)
		})
	}
}

func TestBuilder(t *testing.T) {
	cfg, err := NewBuilder().
		MaxDepth(2).
		ExcludeTypes("AuditLog").
		MaxResponseSize(1.5).
		MaxEntities(100, 20).
		MaxInvalidations(10).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Cascade.MaxDepth)
	assert.Equal(t, []string{"AuditLog"}, cfg.Cascade.ExcludeTypes)
	assert.Equal(t, 1.5, cfg.Response.MaxResponseSizeMB)
	assert.Equal(t, 100, cfg.Response.MaxUpdatedEntities)
	assert.Equal(t, 20, cfg.Response.MaxDeletedEntities)
	assert.Equal(t, 10, cfg.Response.MaxInvalidations)
}

func TestBuilder_RejectsInvalid(t *testing.T) {
	_, err := NewBuilder().MaxDepth(-1).Build()
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, 5, Development().Cascade.MaxDepth)
	assert.Equal(t, []string{"AuditLog", "SystemEvent"}, Production().Cascade.ExcludeTypes)
	assert.Equal(t, 1, Minimal().Cascade.MaxDepth)
	assert.Equal(t, naming.PluralNaive, Production().Naming.PluralMode)
}
