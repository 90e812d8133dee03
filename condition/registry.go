// Package condition holds the cross-item inclusion rules consulted while a
// pool is being built. A rule is evaluated against the pool as it stands at
// the moment of insertion, never against the finished pool.
package condition

import (
	"slices"

	"tcgp-draft-server/catalog"
)

// Predicate reports whether candidate may be added to a pool that currently
// holds pool. Predicates must be pure.
type Predicate func(pool []*catalog.Item, candidate *catalog.Item) bool

// Rule gates one or more item ids behind a predicate.
type Rule struct {
	Label     string
	ItemIDs   []string
	Predicate Predicate
}

// Registry maps item ids to rules. Items without a rule are always eligible.
type Registry struct {
	rules map[string]Rule
	order []string // registration order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule for each of its item ids, replacing any earlier rule
// for the same id.
func (r *Registry) Register(rule Rule) {
	for _, id := range rule.ItemIDs {
		if _, exists := r.rules[id]; !exists {
			r.order = append(r.order, id)
		}
		r.rules[id] = rule
	}
}

// Rule returns the rule gating id, if any.
func (r *Registry) Rule(id string) (Rule, bool) {
	rule, ok := r.rules[id]
	return rule, ok
}

// Len returns the number of gated item ids.
func (r *Registry) Len() int { return len(r.order) }

// GatedIDs returns gated item ids in registration order.
func (r *Registry) GatedIDs() []string { return slices.Clone(r.order) }

// Satisfied reports whether candidate may join pool right now.
func (r *Registry) Satisfied(pool []*catalog.Item, candidate *catalog.Item) bool {
	if r == nil {
		return true
	}
	rule, ok := r.rules[candidate.ID]
	if !ok {
		return true
	}
	return rule.Predicate(pool, candidate)
}
