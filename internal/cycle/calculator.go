package cycle

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"cpdtrack/internal/credit"
	"cpdtrack/internal/practitioner"
	"cpdtrack/internal/rule"
	id "cpdtrack/pkg/domain"
	dErrors "cpdtrack/pkg/domain-errors"
	"cpdtrack/pkg/requestcontext"
)

// statisticsConcurrency bounds the fan-out when computing statistics over a
// large practitioner set.
const statisticsConcurrency = 8

// Calculator derives compliance cycles from the active rule and the
// practitioner's effective credits.
type Calculator struct {
	rules         *rule.Resolver
	practitioners practitioner.Store
	credits       *credit.Aggregator
}

func NewCalculator(rules *rule.Resolver, practitioners practitioner.Store, credits *credit.Aggregator) *Calculator {
	return &Calculator{rules: rules, practitioners: practitioners, credits: credits}
}

// Compute derives the practitioner's current cycle, or nil when no credit
// rule is active — callers must branch on that state explicitly.
//
// The window anchors at the license-issue date (now, when absent) and runs
// the rule's cycle length in years. Achieved credits come from the credit
// aggregator, so approval and evidence gating apply automatically.
func (c *Calculator) Compute(ctx context.Context, practitionerID id.PractitionerID) (*ComplianceCycle, error) {
	activeRule, err := c.rules.ActiveRule(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve active rule")
	}
	if activeRule == nil {
		return nil, nil
	}

	found, err := c.practitioners.FindByIDs(ctx, []id.PractitionerID{practitionerID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve practitioner")
	}
	if len(found) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "practitioner not found")
	}
	p := found[0]

	now := requestcontext.Now(ctx)
	windowStart := now
	if p.LicenseIssuedAt != nil {
		windowStart = *p.LicenseIssuedAt
	}
	windowEnd := windowStart.AddDate(activeRule.CycleYears, 0, 0)

	achieved, err := c.credits.TotalEffective(ctx, practitionerID, credit.Window{From: windowStart, To: windowEnd})
	if err != nil {
		return nil, err
	}

	completionPct := 100.0
	if activeRule.RequiredTotal > 0 {
		completionPct = round2(achieved / activeRule.RequiredTotal * 100)
	}

	// Raw sign decides Overdue; the displayed value floors at zero.
	rawDaysRemaining := int(math.Ceil(windowEnd.Sub(now).Hours() / 24))

	status := StatusInProgress
	switch {
	case completionPct >= 100:
		status = StatusCompleted
	case rawDaysRemaining < 0:
		status = StatusOverdue
	case rawDaysRemaining <= nearingDeadlineDays:
		status = StatusNearingDeadline
	}

	daysRemaining := rawDaysRemaining
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return &ComplianceCycle{
		PractitionerID:  practitionerID,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		RequiredCredits: activeRule.RequiredTotal,
		AchievedCredits: achieved,
		CompletionPct:   completionPct,
		Status:          status,
		DaysRemaining:   daysRemaining,
	}, nil
}

// ComputeStatistics buckets a practitioner set by completion percentage.
// Practitioners without a computable cycle (no active rule never reaches
// here, but unknown practitioners can) count toward Total only.
func (c *Calculator) ComputeStatistics(ctx context.Context, practitionerIDs []id.PractitionerID) (*Statistics, error) {
	stats := &Statistics{Total: len(practitionerIDs)}
	if len(practitionerIDs) == 0 {
		return stats, nil
	}

	// Each goroutine writes its own slot, so the slice needs no lock.
	cycles := make([]*ComplianceCycle, len(practitionerIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(statisticsConcurrency)

	for i, practitionerID := range practitionerIDs {
		group.Go(func() error {
			computed, err := c.Compute(groupCtx, practitionerID)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					return nil
				}
				return err
			}
			cycles[i] = computed
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var (
		computable int
		pctSum     float64
	)
	for _, computed := range cycles {
		if computed == nil {
			continue
		}
		computable++
		pctSum += computed.CompletionPct
		switch {
		case computed.CompletionPct >= 90:
			stats.Compliant++
		case computed.CompletionPct >= 70:
			stats.AtRisk++
		default:
			stats.NonCompliant++
		}
	}
	if computable > 0 {
		stats.AverageCompletion = round2(pctSum / float64(computable))
	}
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
