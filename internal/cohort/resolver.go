package cohort

import (
	"context"

	"cpdtrack/internal/platform/metrics"
	"cpdtrack/internal/practitioner"
	id "cpdtrack/pkg/domain"
	dErrors "cpdtrack/pkg/domain-errors"
)

// Resolver resolves selections against the practitioner roster.
type Resolver struct {
	practitioners practitioner.Store
	metrics       *metrics.Metrics
}

func NewResolver(practitioners practitioner.Store, m *metrics.Metrics) *Resolver {
	return &Resolver{practitioners: practitioners, metrics: m}
}

// Resolve turns a selection into concrete practitioners. Per-practitioner
// problems (unknown id, tenancy violation) land in Result.Errors next to the
// successes; only infrastructure failures return an error.
//
// Resolving the same selection twice against an unchanged roster yields the
// same member set.
func (r *Resolver) Resolve(ctx context.Context, sel Selection, rctx Context) (*Result, error) {
	if rctx.CallerRole == RoleUnitAdmin && rctx.CallerUnitID == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unit-scoped caller requires a unit id")
	}
	sel = normalize(sel)
	result := &Result{Normalized: sel}

	switch sel.Mode {
	case ModeManual:
		if err := r.resolveManual(ctx, sel, rctx, result); err != nil {
			return nil, err
		}
		r.metrics.RecordCohortResolution(string(ModeManual), 0)
	case ModeAllFiltered:
		pages, err := r.resolveAllFiltered(ctx, sel, rctx, result)
		if err != nil {
			return nil, err
		}
		r.metrics.RecordCohortResolution(string(ModeAllFiltered), pages)
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown selection mode %q", sel.Mode)
	}
	return result, nil
}

func (r *Resolver) resolveManual(ctx context.Context, sel Selection, rctx Context, result *Result) error {
	excluded := make(map[id.PractitionerID]struct{}, len(sel.ExcludedIDs))
	for _, practitionerID := range sel.ExcludedIDs {
		excluded[practitionerID] = struct{}{}
	}
	var effective []id.PractitionerID
	for _, practitionerID := range sel.SelectedIDs {
		if _, ok := excluded[practitionerID]; !ok {
			effective = append(effective, practitionerID)
		}
	}
	if len(effective) == 0 {
		result.Errors = append(result.Errors, MemberError{
			Err: "no practitioners selected after exclusions",
		})
		return nil
	}

	found, err := r.practitioners.FindByIDs(ctx, effective)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "batch lookup practitioners")
	}
	byID := make(map[id.PractitionerID]*practitioner.Practitioner, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	for _, practitionerID := range effective {
		p, ok := byID[practitionerID]
		if !ok {
			result.Errors = append(result.Errors, MemberError{
				PractitionerID: practitionerID,
				Err:            "practitioner not found",
			})
			continue
		}
		if rctx.CallerRole == RoleUnitAdmin && p.UnitID != *rctx.CallerUnitID {
			result.Errors = append(result.Errors, MemberError{
				PractitionerID: practitionerID,
				Err:            "practitioner belongs to another unit",
			})
			continue
		}
		result.Practitioners = append(result.Practitioners, Member{ID: p.ID, UnitID: p.UnitID})
	}
	return nil
}

// resolveAllFiltered pages through the roster sequentially, one page in
// flight at a time, accumulating ids until a short page signals the end.
// Returns the number of pages fetched.
func (r *Resolver) resolveAllFiltered(ctx context.Context, sel Selection, rctx Context, result *Result) (int, error) {
	pageSize := rctx.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	filter := practitioner.Filter{
		WorkStatus: sel.Filters.WorkStatus,
		Title:      sel.Filters.Title,
		Department: sel.Filters.Department,
		Search:     sel.Filters.Search,
	}
	// Unit-scoped callers never see outside their unit: the clause is part
	// of the query, not a post-filter.
	if rctx.CallerRole == RoleUnitAdmin {
		filter.UnitID = rctx.CallerUnitID
	}

	excluded := make(map[id.PractitionerID]struct{}, len(sel.ExcludedIDs))
	for _, practitionerID := range sel.ExcludedIDs {
		excluded[practitionerID] = struct{}{}
	}

	pages := 0
	for offset := 0; ; offset += pageSize {
		page, err := r.practitioners.ListFiltered(ctx, filter, pageSize, offset)
		if err != nil {
			return pages, dErrors.Wrap(err, dErrors.CodeInternal, "page filtered practitioners")
		}
		pages++
		for _, p := range page {
			if _, ok := excluded[p.ID]; ok {
				continue
			}
			result.Practitioners = append(result.Practitioners, Member{ID: p.ID, UnitID: p.UnitID})
		}
		if len(page) < pageSize {
			return pages, nil
		}
	}
}
