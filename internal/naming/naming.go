package naming

import (
	"github.com/jinzhu/inflection"
)

// Namer derives query names from entity typenames.
type Namer struct {
	config Config
}

// New creates a Namer with the given configuration.
func New(cfg Config) *Namer {
	if cfg.PluralMode == "" {
		cfg.PluralMode = PluralNaive
	}
	return &Namer{config: cfg}
}

// Default returns a Namer with default configuration.
func Default() *Namer {
	return New(DefaultConfig())
}

// Pluralize converts a typename to its plural form. Overrides win, then the
// configured mode applies.
func (n *Namer) Pluralize(typename string) string {
	if override, ok := n.config.PluralOverrides[typename]; ok {
		return override
	}
	if n.config.PluralMode == PluralInflect {
		return inflection.Plural(typename)
	}
	return typename + "s"
}

// ListQueryName returns the conventional list query name for a typename.
// Example: "User" -> "listUsers".
func (n *Namer) ListQueryName(typename string) string {
	return "list" + n.Pluralize(typename)
}

// GetQueryName returns the conventional single-entity query name.
// Example: "User" -> "getUser".
func (n *Namer) GetQueryName(typename string) string {
	return "get" + typename
}

// SearchQueryPattern returns the glob pattern matching search queries for a
// typename. Example: "User" -> "searchUser*".
func (n *Namer) SearchQueryPattern(typename string) string {
	return "search" + typename + "*"
}
