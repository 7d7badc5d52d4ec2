// Package invalidation derives cache-invalidation hints from a transaction's
// entity changes: type-derived defaults, schema-directive rules, and a hint
// for the mutation's primary result, then dedupe, prioritize, and cap.
package invalidation

import (
	"sort"

	"graphql-cascade/internal/cascade"
	"graphql-cascade/internal/entity"
	"graphql-cascade/internal/naming"
	"graphql-cascade/internal/schemarules"
)

// DefaultMaxHints caps the planned hint list unless configured otherwise.
const DefaultMaxHints = 50

// Planner computes invalidation hints. The rule table is built once at
// startup and read-only afterwards, so a single Planner serves all requests.
type Planner struct {
	rules    *schemarules.Table
	namer    *naming.Namer
	maxHints int
}

// New creates a Planner. A nil table behaves as an empty rule set; a nil
// namer uses the default naming convention.
func New(rules *schemarules.Table, namer *naming.Namer, maxHints int) *Planner {
	if rules == nil {
		rules = schemarules.EmptyTable()
	}
	if namer == nil {
		namer = naming.Default()
	}
	if maxHints <= 0 {
		maxHints = DefaultMaxHints
	}
	return &Planner{rules: rules, namer: namer, maxHints: maxHints}
}

// Result carries the planned hints and whether the cap truncated them.
type Result struct {
	Hints     []cascade.Hint
	Truncated bool
}

// Plan computes the deduplicated, prioritized hint list for a set of entity
// changes. primary is the mutation's primary result, if any.
func (p *Planner) Plan(updated []cascade.UpdatedRecord, deleted []cascade.DeletedRecord, primary any) Result {
	hints := p.typeDefaults(updated, deleted)
	hints = append(hints, p.ruleHints(updated)...)
	hints = append(hints, p.primaryHint(primary)...)

	hints = Dedupe(hints)
	Prioritize(hints)

	if len(hints) > p.maxHints {
		return Result{Hints: hints[:p.maxHints], Truncated: true}
	}
	return Result{Hints: hints}
}

// typeDefaults emits the conventional list/get/search hints for every
// distinct affected typename, in first-seen order.
func (p *Planner) typeDefaults(updated []cascade.UpdatedRecord, deleted []cascade.DeletedRecord) []cascade.Hint {
	seen := make(map[string]struct{})
	var typenames []string
	observe := func(t string) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			typenames = append(typenames, t)
		}
	}
	for _, rec := range updated {
		observe(rec.Typename)
	}
	for _, rec := range deleted {
		observe(rec.Typename)
	}

	hints := make([]cascade.Hint, 0, len(typenames)*3)
	for _, t := range typenames {
		hints = append(hints,
			cascade.Hint{QueryName: p.namer.ListQueryName(t), Strategy: cascade.StrategyInvalidate, Scope: cascade.ScopePrefix},
			cascade.Hint{QueryName: p.namer.GetQueryName(t), Strategy: cascade.StrategyRefetch, Scope: cascade.ScopeExact},
			cascade.Hint{QueryPattern: p.namer.SearchQueryPattern(t), Strategy: cascade.StrategyInvalidate, Scope: cascade.ScopePattern},
		)
	}
	return hints
}

// ruleHints applies @cascadeInvalidates rules. Without prior-snapshot
// diffing, every rule bound to a field present in the entity snapshot is
// treated as applying.
func (p *Planner) ruleHints(updated []cascade.UpdatedRecord) []cascade.Hint {
	var hints []cascade.Hint
	for _, rec := range updated {
		for _, field := range p.rules.FieldsWithRules(rec.Typename) {
			if _, present := rec.Entity[field]; !present {
				continue
			}
			for _, rule := range p.rules.RulesFor(rec.Typename, field) {
				hints = append(hints, rule.Hint())
			}
		}
	}
	return hints
}

// primaryHint emits a targeted refetch for the mutation's own result entity.
func (p *Planner) primaryHint(primary any) []cascade.Hint {
	if primary == nil || !entity.IsEntity(primary) {
		return nil
	}
	key, err := entity.Identify(primary)
	if err != nil {
		return nil
	}
	return []cascade.Hint{{
		QueryName: p.namer.GetQueryName(key.Typename),
		Arguments: map[string]any{"id": key.ID},
		Strategy:  cascade.StrategyRefetch,
		Scope:     cascade.ScopeExact,
	}}
}

// Prioritize stable-sorts hints by scope specificity, EXACT first. Order
// within the same scope is preserved.
func Prioritize(hints []cascade.Hint) {
	sort.SliceStable(hints, func(i, j int) bool {
		return hints[i].Scope.Priority() > hints[j].Scope.Priority()
	})
}
