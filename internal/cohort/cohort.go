// Package cohort turns a bulk-submission selection descriptor into a
// concrete, tenant-validated practitioner set.
package cohort

import (
	"sort"

	"cpdtrack/internal/practitioner"
	id "cpdtrack/pkg/domain"
)

// Mode says how a selection names its practitioners.
type Mode string

const (
	// ModeManual selects an explicit id list.
	ModeManual Mode = "manual"
	// ModeAllFiltered selects everyone matching the filters.
	ModeAllFiltered Mode = "all"
)

// Filters narrow an all-filtered selection. Zero values mean no constraint.
type Filters struct {
	WorkStatus practitioner.WorkStatus
	Title      string
	Department string
	Search     string
}

// Selection is the upstream payload describing who a bulk submission
// targets. ExcludedIDs are subtracted in both modes.
type Selection struct {
	Mode        Mode
	SelectedIDs []id.PractitionerID
	ExcludedIDs []id.PractitionerID
	Filters     Filters
	// TotalFiltered is an informational estimate from the preview UI; the
	// resolver never trusts it.
	TotalFiltered int
}

// Role scopes what a caller may target.
type Role string

const (
	RoleAdmin Role = "admin"
	// RoleUnitAdmin is restricted to its own unit's practitioners.
	RoleUnitAdmin Role = "unit_admin"
)

// Context describes the caller resolving a selection.
type Context struct {
	CallerRole   Role
	CallerUnitID *id.UnitID
	// PageSize bounds each roster page in all-filtered mode. Zero means the
	// default of 500.
	PageSize int
}

// defaultPageSize bounds all-filtered roster pages when the caller didn't.
const defaultPageSize = 500

// Member is one resolved practitioner.
type Member struct {
	ID     id.PractitionerID
	UnitID id.UnitID
}

// MemberError reports why one practitioner could not be resolved.
type MemberError struct {
	PractitionerID id.PractitionerID
	Err            string
}

// Result is what a resolution produces: the practitioners that resolved, the
// per-practitioner failures, and the normalized selection actually used.
// Successes and failures always travel together; a partial failure never
// discards the rest.
type Result struct {
	Practitioners []Member
	Errors        []MemberError
	// Normalized echoes back the de-duplicated id sets for idempotent
	// re-display and audit logging.
	Normalized Selection
}

// normalize de-dupes and sorts both id sets so resolving the same selection
// twice yields the identical normalized form.
func normalize(sel Selection) Selection {
	sel.SelectedIDs = dedupeSorted(sel.SelectedIDs)
	sel.ExcludedIDs = dedupeSorted(sel.ExcludedIDs)
	return sel
}

func dedupeSorted(ids []id.PractitionerID) []id.PractitionerID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[id.PractitionerID]struct{}, len(ids))
	unique := make([]id.PractitionerID, 0, len(ids))
	for _, practitionerID := range ids {
		if _, ok := seen[practitionerID]; ok {
			continue
		}
		seen[practitionerID] = struct{}{}
		unique = append(unique, practitionerID)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})
	return unique
}
