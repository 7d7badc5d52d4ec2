package schemarules

import (
	"fmt"
	"sort"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	"graphql-cascade/internal/cascade"
)

// Rule is one @cascadeInvalidates directive bound to an object-type field.
// Exactly one of Query and QueryPattern is set.
type Rule struct {
	Query        string         `mapstructure:"query"`
	QueryPattern string         `mapstructure:"queryPattern"`
	Strategy     string         `mapstructure:"strategy"`
	Scope        string         `mapstructure:"scope"`
	Arguments    map[string]any `mapstructure:"arguments"`
}

// Hint converts the rule into an invalidation hint, applying the directive's
// argument defaults (strategy INVALIDATE, scope PREFIX).
func (r Rule) Hint() cascade.Hint {
	hint := cascade.Hint{
		QueryName:    r.Query,
		QueryPattern: r.QueryPattern,
		Strategy:     cascade.Strategy(r.Strategy),
		Scope:        cascade.Scope(r.Scope),
		Arguments:    r.Arguments,
	}
	if hint.Strategy == "" {
		hint.Strategy = cascade.StrategyInvalidate
	}
	if hint.Scope == "" {
		hint.Scope = cascade.ScopePrefix
	}
	return hint
}

// Table is the immutable directive cache built from the SDL at startup. It
// is read-only after construction and safe for concurrent use.
type Table struct {
	// rules maps typename -> field name -> rules.
	rules map[string]map[string][]Rule
	// mutations maps mutation field name -> its @cascade settings.
	mutations map[string]Settings
	// mutationFields maps mutation field name -> its AST definition, for
	// hosts that look up field definitions by name.
	mutationFields map[string]*ast.FieldDefinition
}

// EmptyTable returns a table with no rules and no cascade mutations, the
// minimal conforming configuration.
func EmptyTable() *Table {
	return &Table{
		rules:          map[string]map[string][]Rule{},
		mutations:      map[string]Settings{},
		mutationFields: map[string]*ast.FieldDefinition{},
	}
}

// Parse builds a Table from SDL. Unknown directives are ignored; malformed
// cascade directive arguments fail the parse so bad schemas surface at
// startup rather than per-request.
func Parse(sdl string) (*Table, error) {
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{
			Body: []byte(sdl),
			Name: "schema",
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	table := EmptyTable()
	for _, def := range doc.Definitions {
		obj, ok := def.(*ast.ObjectDefinition)
		if !ok || obj.Name == nil {
			continue
		}
		if obj.Name.Value == "Mutation" {
			if err := table.addMutations(obj); err != nil {
				return nil, err
			}
			continue
		}
		if err := table.addTypeRules(obj); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func (t *Table) addMutations(obj *ast.ObjectDefinition) error {
	for _, field := range obj.Fields {
		settings, present, err := CascadeSettings(field)
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		name := fieldName(field)
		t.mutations[name] = settings
		t.mutationFields[name] = field
	}
	return nil
}

func (t *Table) addTypeRules(obj *ast.ObjectDefinition) error {
	typename := obj.Name.Value
	for _, field := range obj.Fields {
		d := FindDirective(field.Directives, DirectiveInvalidates)
		if d == nil {
			continue
		}

		var rule Rule
		if err := decodeArguments(d, &rule); err != nil {
			return fmt.Errorf("invalid @cascadeInvalidates on %s.%s: %w", typename, fieldName(field), err)
		}
		if (rule.Query == "") == (rule.QueryPattern == "") {
			return fmt.Errorf("@cascadeInvalidates on %s.%s: exactly one of query and queryPattern required", typename, fieldName(field))
		}

		if t.rules[typename] == nil {
			t.rules[typename] = map[string][]Rule{}
		}
		t.rules[typename][fieldName(field)] = append(t.rules[typename][fieldName(field)], rule)
	}
	return nil
}

// RulesFor returns the rules attached to one field of a type.
func (t *Table) RulesFor(typename, field string) []Rule {
	return t.rules[typename][field]
}

// FieldsWithRules returns the rule-bearing field names of a type in sorted
// order. Map iteration order would break hint determinism.
func (t *Table) FieldsWithRules(typename string) []string {
	byField := t.rules[typename]
	if len(byField) == 0 {
		return nil
	}
	fields := make([]string, 0, len(byField))
	for f := range byField {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// MutationSettings returns the @cascade settings for a mutation field name.
// The second return is false for mutations without the directive.
func (t *Table) MutationSettings(name string) (Settings, bool) {
	s, ok := t.mutations[name]
	return s, ok
}

// MutationField returns the AST field definition of a cascade mutation.
func (t *Table) MutationField(name string) *ast.FieldDefinition {
	return t.mutationFields[name]
}
