// Package rule models credit rules and resolves the one rule currently in
// force. Rules are managed externally; this module only reads them.
package rule

import (
	"time"

	"cpdtrack/internal/catalog"
	id "cpdtrack/pkg/domain"
	dErrors "cpdtrack/pkg/domain-errors"
)

// CreditRule is one credit policy: how many credits a compliance cycle
// requires, how long the cycle runs, and optional per-category caps.
//
// Invariants:
//   - CycleYears >= 1
//   - every cap value is >= 0 and keyed by a valid category
//
// Both are enforced at the load boundary (ValidateCaps / the postgres store),
// never re-checked at use sites.
type CreditRule struct {
	ID            id.RuleID
	RequiredTotal float64
	CycleYears    int
	CategoryCaps  map[catalog.Category]float64
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	Active        bool
	CreatedAt     time.Time
}

// CapFor returns the cap for a category, if the rule defines one.
func (r *CreditRule) CapFor(category catalog.Category) (float64, bool) {
	if r == nil || r.CategoryCaps == nil {
		return 0, false
	}
	cap, ok := r.CategoryCaps[category]
	return cap, ok
}

// InForceAt reports whether the rule's effective window covers t. Nil bounds
// are open-ended.
func (r *CreditRule) InForceAt(t time.Time) bool {
	if !r.Active {
		return false
	}
	if r.EffectiveFrom != nil && r.EffectiveFrom.After(t) {
		return false
	}
	if r.EffectiveTo != nil && r.EffectiveTo.Before(t) {
		return false
	}
	return true
}

// ValidateCaps converts a raw category→cap mapping into the typed form,
// rejecting unknown categories and negative caps. Called where rules are
// loaded, so downstream code can trust the map.
func ValidateCaps(raw map[string]float64) (map[catalog.Category]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	caps := make(map[catalog.Category]float64, len(raw))
	for rawCategory, cap := range raw {
		category, err := catalog.ParseCategory(rawCategory)
		if err != nil {
			return nil, err
		}
		if cap < 0 {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput,
				"category %s has negative cap %v", category, cap)
		}
		caps[category] = cap
	}
	return caps, nil
}
