package rule

import (
	"context"

	"cpdtrack/pkg/requestcontext"
)

// Store lists the active rules the resolver chooses between.
type Store interface {
	// ListActive returns all rules with active = true, in insertion order.
	ListActive(ctx context.Context) ([]*CreditRule, error)
}

// Resolver picks the single rule currently in force.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ActiveRule returns the rule in force right now, or nil when none is.
// "No active policy" is a defined state the caller must branch on, not an
// error.
//
// Among qualifying rules the latest non-nil EffectiveFrom wins, nil
// EffectiveFrom sorting last; remaining ties go to the most recently created
// rule.
func (r *Resolver) ActiveRule(ctx context.Context) (*CreditRule, error) {
	rules, err := r.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var current *CreditRule
	for _, candidate := range rules {
		if !candidate.InForceAt(now) {
			continue
		}
		if current == nil || wins(candidate, current) {
			current = candidate
		}
	}
	return current, nil
}

// wins reports whether candidate beats incumbent for the "current rule" slot.
func wins(candidate, incumbent *CreditRule) bool {
	switch {
	case candidate.EffectiveFrom != nil && incumbent.EffectiveFrom == nil:
		return true
	case candidate.EffectiveFrom == nil && incumbent.EffectiveFrom != nil:
		return false
	case candidate.EffectiveFrom != nil && incumbent.EffectiveFrom != nil &&
		!candidate.EffectiveFrom.Equal(*incumbent.EffectiveFrom):
		return candidate.EffectiveFrom.After(*incumbent.EffectiveFrom)
	default:
		return candidate.CreatedAt.After(incumbent.CreatedAt)
	}
}
