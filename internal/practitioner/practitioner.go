// Package practitioner models licensed practitioners and the read-only
// lookups the cohort resolver and cycle calculator need. Practitioner records
// are managed by an external registry; this module never mutates them.
package practitioner

import (
	"time"

	id "cpdtrack/pkg/domain"
)

// WorkStatus is a practitioner's employment state.
type WorkStatus string

const (
	WorkStatusActive   WorkStatus = "DangLamViec"
	WorkStatusOnLeave  WorkStatus = "NghiPhep"
	WorkStatusResigned WorkStatus = "DaNghiViec"
)

// Practitioner is one licensed practitioner.
type Practitioner struct {
	ID         id.PractitionerID
	UnitID     id.UnitID
	FullName   string
	Title      string
	Department string
	WorkStatus WorkStatus
	// LicenseIssuedAt anchors the compliance cycle. Nil means the cycle
	// anchors at "now" on each computation.
	LicenseIssuedAt *time.Time
}

// Filter narrows a paged practitioner listing. Zero values mean "no
// constraint"; UnitID is mandatory for unit-scoped callers and enforced by
// the cohort resolver.
type Filter struct {
	UnitID     *id.UnitID
	WorkStatus WorkStatus
	Title      string
	Department string
	// Search matches the full name, case-insensitively, as a substring.
	Search string
}
