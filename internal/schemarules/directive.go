// Package schemarules parses the SDL once at startup and caches the cascade
// directive information the middleware and planner consult on every mutation:
// per-mutation @cascade settings and the @cascadeInvalidates rule table.
package schemarules

import (
	"fmt"
	"strconv"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/mitchellh/mapstructure"
)

// DirectiveCascade and DirectiveInvalidates are the schema-level directive
// names this package recognizes.
const (
	DirectiveCascade     = "cascade"
	DirectiveInvalidates = "cascadeInvalidates"
)

// Settings carries the arguments of a @cascade directive on a mutation field.
type Settings struct {
	MaxDepth       int      `mapstructure:"maxDepth"`
	IncludeRelated bool     `mapstructure:"includeRelated"`
	AutoInvalidate bool     `mapstructure:"autoInvalidate"`
	ExcludeTypes   []string `mapstructure:"excludeTypes"`
}

// DefaultSettings returns the @cascade argument defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxDepth:       3,
		IncludeRelated: true,
		AutoInvalidate: true,
		ExcludeTypes:   []string{},
	}
}

// FindDirective returns the named directive from a directive list, or nil.
func FindDirective(directives []*ast.Directive, name string) *ast.Directive {
	for _, d := range directives {
		if d != nil && d.Name != nil && d.Name.Value == name {
			return d
		}
	}
	return nil
}

// HasCascade reports whether a mutation field definition carries @cascade.
func HasCascade(field *ast.FieldDefinition) bool {
	return field != nil && FindDirective(field.Directives, DirectiveCascade) != nil
}

// CascadeSettings decodes the @cascade directive on a field definition.
// The second return is false when the directive is absent.
func CascadeSettings(field *ast.FieldDefinition) (Settings, bool, error) {
	settings := DefaultSettings()
	if field == nil {
		return settings, false, nil
	}
	d := FindDirective(field.Directives, DirectiveCascade)
	if d == nil {
		return settings, false, nil
	}
	if err := decodeArguments(d, &settings); err != nil {
		return settings, true, fmt.Errorf("invalid @cascade arguments on %q: %w", fieldName(field), err)
	}
	return settings, true, nil
}

func fieldName(field *ast.FieldDefinition) string {
	if field.Name == nil {
		return ""
	}
	return field.Name.Value
}

// decodeArguments converts directive arguments into a struct via mapstructure
// so numeric and enum literals decode leniently.
func decodeArguments(d *ast.Directive, target any) error {
	args := make(map[string]any, len(d.Arguments))
	for _, arg := range d.Arguments {
		if arg == nil || arg.Name == nil {
			continue
		}
		args[arg.Name.Value] = literalValue(arg.Value)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

// literalValue converts a GraphQL AST value literal into a plain Go value.
func literalValue(v ast.Value) any {
	switch tv := v.(type) {
	case *ast.StringValue:
		return tv.Value
	case *ast.EnumValue:
		return tv.Value
	case *ast.BooleanValue:
		return tv.Value
	case *ast.IntValue:
		if i, err := strconv.Atoi(tv.Value); err == nil {
			return i
		}
		return tv.Value
	case *ast.FloatValue:
		if f, err := strconv.ParseFloat(tv.Value, 64); err == nil {
			return f
		}
		return tv.Value
	case *ast.ListValue:
		items := make([]any, 0, len(tv.Values))
		for _, item := range tv.Values {
			items = append(items, literalValue(item))
		}
		return items
	case *ast.ObjectValue:
		fields := make(map[string]any, len(tv.Fields))
		for _, f := range tv.Fields {
			if f == nil || f.Name == nil {
				continue
			}
			fields[f.Name.Value] = literalValue(f.Value)
		}
		return fields
	default:
		return nil
	}
}
