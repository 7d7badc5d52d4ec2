package config

// Builder provides fluent programmatic configuration.
type Builder struct {
	cfg *Config
}

// NewBuilder starts from the default configuration.
func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

// Enabled turns cascade interception on or off.
func (b *Builder) Enabled(enabled bool) *Builder {
	b.cfg.Cascade.Enabled = enabled
	return b
}

// MaxDepth sets the default traversal depth.
func (b *Builder) MaxDepth(depth int) *Builder {
	b.cfg.Cascade.MaxDepth = depth
	return b
}

// ExcludeTypes sets the typenames excluded from tracking.
func (b *Builder) ExcludeTypes(types ...string) *Builder {
	b.cfg.Cascade.ExcludeTypes = types
	return b
}

// MaxResponseSize sets the response size budget in MiB.
func (b *Builder) MaxResponseSize(sizeMB float64) *Builder {
	b.cfg.Response.MaxResponseSizeMB = sizeMB
	return b
}

// MaxEntities sets the updated and deleted entity caps.
func (b *Builder) MaxEntities(maxUpdated, maxDeleted int) *Builder {
	b.cfg.Response.MaxUpdatedEntities = maxUpdated
	b.cfg.Response.MaxDeletedEntities = maxDeleted
	return b
}

// MaxInvalidations sets the invalidation hint cap.
func (b *Builder) MaxInvalidations(max int) *Builder {
	b.cfg.Response.MaxInvalidations = max
	return b
}

// Build validates and returns the configuration.
func (b *Builder) Build() (*Config, error) {
	if result := b.cfg.Validate(); result.HasErrors() {
		return nil, result.Errors[0]
	}
	return b.cfg, nil
}

// Development returns a permissive configuration for local work.
func Development() *Config {
	cfg, _ := NewBuilder().MaxDepth(5).MaxResponseSize(10.0).MaxEntities(1000, 200).Build()
	return cfg
}

// Production returns the hardened default configuration.
func Production() *Config {
	cfg, _ := NewBuilder().
		MaxDepth(3).
		MaxResponseSize(5.0).
		MaxEntities(500, 100).
		ExcludeTypes("AuditLog", "SystemEvent").
		Build()
	return cfg
}

// Minimal returns a tight configuration for tests.
func Minimal() *Config {
	cfg, _ := NewBuilder().MaxDepth(1).MaxResponseSize(1.0).MaxEntities(50, 50).Build()
	return cfg
}
