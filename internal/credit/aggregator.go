// Package credit computes effective credit values: the amount a submission
// actually counts for after approval-status and evidence gates and catalog
// min/max clamps. Everything here is derived on demand from current rows;
// nothing is cached.
package credit

import (
	"context"
	"fmt"
	"time"

	"cpdtrack/internal/catalog"
	"cpdtrack/internal/rule"
	"cpdtrack/internal/submission"
	id "cpdtrack/pkg/domain"
	dErrors "cpdtrack/pkg/domain-errors"
)

// Window is a closed activity-date interval [From, To].
type Window struct {
	From time.Time
	To   time.Time
}

// EffectiveCredits computes the credit value one submission counts for.
// The catalog entry may be nil for free-form submissions.
//
// Gates, in order: non-approved submissions count 0; evidence-requiring
// entries without an evidence URL count 0; a base value below the entry's
// minimum counts 0; a base value above the maximum clamps to it.
func EffectiveCredits(record *submission.Record, entry *catalog.Entry) float64 {
	if record.Status != submission.StatusApproved {
		return 0
	}
	if entry != nil && entry.RequiresEvidence && !record.HasEvidence() {
		return 0
	}

	var base float64
	switch {
	case record.Credits != nil:
		base = *record.Credits
	case record.Hours != nil && entry != nil:
		base = *record.Hours * entry.ConversionRate
	default:
		return 0
	}

	if entry != nil {
		if entry.MinHours != nil && base < *entry.MinHours {
			return 0
		}
		if entry.MaxHours != nil && base > *entry.MaxHours {
			base = *entry.MaxHours
		}
	}
	return base
}

// CategoryTotal is one row of a per-category credit summary.
type CategoryTotal struct {
	Category      catalog.Category
	TotalCredits  float64
	ActivityCount int
	// Cap and Remaining are set when the active rule caps the category.
	Cap       *float64
	Remaining *float64
}

// CapCheck is the outcome of a category-cap validation.
type CapCheck struct {
	Valid        bool
	Message      string
	CurrentTotal *float64
	Limit        *float64
}

// Aggregator sums effective credits across a practitioner's submissions.
type Aggregator struct {
	submissions submission.Store
	catalogs    catalog.Store
	rules       *rule.Resolver
}

func NewAggregator(submissions submission.Store, catalogs catalog.Store, rules *rule.Resolver) *Aggregator {
	return &Aggregator{submissions: submissions, catalogs: catalogs, rules: rules}
}

// SummaryByCategory aggregates effective credits over the practitioner's
// approved submissions in the window, grouped by catalog category.
// Submissions without a catalog entry land in the Other bucket. When the
// active rule caps a category, the row carries the cap and what remains
// under it. Rows come back in the stable category display order.
func (a *Aggregator) SummaryByCategory(ctx context.Context, practitionerID id.PractitionerID, window Window) ([]CategoryTotal, error) {
	records, entries, err := a.loadWindow(ctx, practitionerID, window)
	if err != nil {
		return nil, err
	}

	activeRule, err := a.rules.ActiveRule(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve active rule")
	}

	totals := make(map[catalog.Category]*CategoryTotal)
	for _, record := range records {
		if record.Status != submission.StatusApproved {
			continue
		}
		entry := entryFor(record, entries)
		category := catalog.CategoryOther
		if entry != nil {
			category = entry.Category
		}
		row, ok := totals[category]
		if !ok {
			row = &CategoryTotal{Category: category}
			totals[category] = row
		}
		row.TotalCredits += EffectiveCredits(record, entry)
		row.ActivityCount++
	}

	var summary []CategoryTotal
	for _, category := range catalog.Categories() {
		row, ok := totals[category]
		if !ok {
			continue
		}
		if cap, capped := activeRule.CapFor(category); capped {
			remaining := cap - row.TotalCredits
			if remaining < 0 {
				remaining = 0
			}
			row.Cap = &cap
			row.Remaining = &remaining
		}
		summary = append(summary, *row)
	}
	return summary, nil
}

// CategoryTotalIn computes the effective-credit total for one category in the
// window, with the same Approved+evidence gating as EffectiveCredits.
func (a *Aggregator) CategoryTotalIn(ctx context.Context, practitionerID id.PractitionerID, category catalog.Category, window Window) (float64, error) {
	records, entries, err := a.loadWindow(ctx, practitionerID, window)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, record := range records {
		if record.Status != submission.StatusApproved {
			continue
		}
		entry := entryFor(record, entries)
		recordCategory := catalog.CategoryOther
		if entry != nil {
			recordCategory = entry.Category
		}
		if recordCategory != category {
			continue
		}
		total += EffectiveCredits(record, entry)
	}
	return total, nil
}

// ValidateCategoryCap checks whether adding creditsToAdd to the category
// would exceed the active rule's cap. With no active rule or no cap for the
// category, the addition is always valid.
func (a *Aggregator) ValidateCategoryCap(ctx context.Context, practitionerID id.PractitionerID, category catalog.Category, creditsToAdd float64, window Window) (*CapCheck, error) {
	activeRule, err := a.rules.ActiveRule(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve active rule")
	}
	cap, capped := activeRule.CapFor(category)
	if !capped {
		return &CapCheck{Valid: true}, nil
	}

	currentTotal, err := a.CategoryTotalIn(ctx, practitionerID, category, window)
	if err != nil {
		return nil, err
	}
	check := &CapCheck{
		CurrentTotal: &currentTotal,
		Limit:        &cap,
	}
	if currentTotal+creditsToAdd > cap {
		check.Valid = false
		check.Message = fmt.Sprintf(
			"category %s cap exceeded: %.2f current + %.2f requested > %.2f allowed",
			category, currentTotal, creditsToAdd, cap)
		return check, nil
	}
	check.Valid = true
	return check, nil
}

// TotalEffective sums effective credits over all the practitioner's
// submissions in the window, across categories. The cycle calculator's
// "achieved" value.
func (a *Aggregator) TotalEffective(ctx context.Context, practitionerID id.PractitionerID, window Window) (float64, error) {
	records, entries, err := a.loadWindow(ctx, practitionerID, window)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, record := range records {
		total += EffectiveCredits(record, entryFor(record, entries))
	}
	return total, nil
}

func (a *Aggregator) loadWindow(ctx context.Context, practitionerID id.PractitionerID, window Window) ([]*submission.Record, map[id.CatalogID]*catalog.Entry, error) {
	records, err := a.submissions.ListByPractitionerInWindow(ctx, practitionerID, window.From, window.To)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "list submissions in window")
	}

	var catalogIDs []id.CatalogID
	seen := make(map[id.CatalogID]struct{})
	for _, record := range records {
		if record.CatalogID == nil {
			continue
		}
		if _, ok := seen[*record.CatalogID]; ok {
			continue
		}
		seen[*record.CatalogID] = struct{}{}
		catalogIDs = append(catalogIDs, *record.CatalogID)
	}
	entries, err := a.catalogs.FindByIDs(ctx, catalogIDs)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve catalog entries")
	}
	return records, entries, nil
}

func entryFor(record *submission.Record, entries map[id.CatalogID]*catalog.Entry) *catalog.Entry {
	if record.CatalogID == nil {
		return nil
	}
	return entries[*record.CatalogID]
}
