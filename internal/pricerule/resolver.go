// Package pricerule resolves the custom price rule that applies to a date.
package pricerule

import "time"

// Resolver matches dates against an ordered rule list. The first rule with a
// satisfied condition wins, regardless of how specific later rules are.
type Resolver struct {
	enabled bool
	rules   []Rule
}

// NewResolver builds a resolver. A disabled resolver never returns a rule.
func NewResolver(enabled bool, rules []Rule) *Resolver {
	return &Resolver{enabled: enabled, rules: rules}
}

// Resolve returns the first rule matching date, or nil.
func (r *Resolver) Resolve(date time.Time) *Rule {
	if r == nil || !r.enabled {
		return nil
	}
	for i := range r.rules {
		if r.rules[i].Matches(date) {
			return &r.rules[i]
		}
	}
	return nil
}
