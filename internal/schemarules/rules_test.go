package schemarules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphql-cascade/internal/cascade"
)

const testSDL = `
directive @cascade(maxDepth: Int = 3, includeRelated: Boolean = true, autoInvalidate: Boolean = true, excludeTypes: [String!] = []) on FIELD_DEFINITION
directive @cascadeInvalidates(query: String, queryPattern: String, strategy: String, scope: String, arguments: JSON) on FIELD_DEFINITION

scalar JSON

type User {
  id: ID!
  name: String @cascadeInvalidates(query: "listUsers", strategy: REFETCH, scope: EXACT)
  email: String @cascadeInvalidates(queryPattern: "userBy*", scope: PATTERN)
}

type Todo {
  id: ID!
  title: String
}

type Mutation {
  createUser(name: String!): User @cascade(maxDepth: 2, excludeTypes: ["AuditLog"])
  updateTodo(id: ID!): Todo @cascade
  plainMutation(id: ID!): Todo
}
`

func TestParse_MutationSettings(t *testing.T) {
	table, err := Parse(testSDL)
	require.NoError(t, err)

	settings, ok := table.MutationSettings("createUser")
	require.True(t, ok)
	assert.Equal(t, 2, settings.MaxDepth)
	assert.True(t, settings.IncludeRelated)
	assert.True(t, settings.AutoInvalidate)
	assert.Equal(t, []string{"AuditLog"}, settings.ExcludeTypes)

	// Bare @cascade keeps the defaults.
	settings, ok = table.MutationSettings("updateTodo")
	require.True(t, ok)
	assert.Equal(t, DefaultSettings().MaxDepth, settings.MaxDepth)

	_, ok = table.MutationSettings("plainMutation")
	assert.False(t, ok)
}

func TestParse_RuleTable(t *testing.T) {
	table, err := Parse(testSDL)
	require.NoError(t, err)

	rules := table.RulesFor("User", "name")
	require.Len(t, rules, 1)
	hint := rules[0].Hint()
	assert.Equal(t, "listUsers", hint.QueryName)
	assert.Equal(t, cascade.StrategyRefetch, hint.Strategy)
	assert.Equal(t, cascade.ScopeExact, hint.Scope)

	rules = table.RulesFor("User", "email")
	require.Len(t, rules, 1)
	hint = rules[0].Hint()
	assert.Equal(t, "userBy*", hint.QueryPattern)
	// Directive defaults apply when arguments are omitted.
	assert.Equal(t, cascade.StrategyInvalidate, hint.Strategy)
	assert.Equal(t, cascade.ScopePattern, hint.Scope)

	assert.Empty(t, table.RulesFor("Todo", "title"))
	assert.Equal(t, []string{"email", "name"}, table.FieldsWithRules("User"))
	assert.Nil(t, table.FieldsWithRules("Todo"))
}

func TestParse_HasCascadeOnFieldAST(t *testing.T) {
	table, err := Parse(testSDL)
	require.NoError(t, err)

	assert.True(t, HasCascade(table.MutationField("createUser")))
	assert.Nil(t, table.MutationField("plainMutation"))
}

func TestParse_RejectsAmbiguousRule(t *testing.T) {
	_, err := Parse(`
type User {
  id: ID!
  name: String @cascadeInvalidates(query: "a", queryPattern: "b*")
}
`)
	require.Error(t, err)

	_, err = Parse(`
type User {
  id: ID!
  name: String @cascadeInvalidates(strategy: REMOVE)
}
`)
	require.Error(t, err)
}

func TestParse_InvalidSDL(t *testing.T) {
	_, err := Parse("type {{{")
	assert.Error(t, err)
}

func TestEmptyTable(t *testing.T) {
	table := EmptyTable()
	assert.Empty(t, table.RulesFor("User", "name"))
	_, ok := table.MutationSettings("createUser")
	assert.False(t, ok)
}
