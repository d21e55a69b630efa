// Package submission models credit submissions and the approval lifecycle
// that gates what counts toward compliance. Only Approved records ever
// contribute credits, so every transition here deterministically changes the
// compliance outputs on the next read.
package submission

import (
	"strings"
	"time"

	id "cpdtrack/pkg/domain"
)

// Status is a submission's approval state.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// CreationMethod tags how a submission entered the system.
type CreationMethod string

const (
	CreatedIndividually CreationMethod = "individual"
	CreatedByBulk       CreationMethod = "bulk"
	CreatedByImport     CreationMethod = "import"
)

// Record is one credit submission.
//
// Effective credits are always derived from Status, EvidenceURL, and the
// catalog entry at read time; they are never stored.
type Record struct {
	ID             id.SubmissionID
	PractitionerID id.PractitionerID
	CatalogID      *id.CatalogID
	ActivityName   string
	Role           string
	// ActivityDate is the activity's start date; window filtering keys on it.
	ActivityDate time.Time
	Hours        *float64
	// Credits is the raw credit value the submitter reported, when any.
	Credits     *float64
	EvidenceURL *string

	Status     Status
	ApprovedBy *id.UserID
	ApprovedAt *time.Time
	// Comment is the approval comment trail. Revocations append to it,
	// never overwrite it.
	Comment string

	SubmittedBy    id.UserID
	CreationMethod CreationMethod
	CreatedAt      time.Time
}

// HasEvidence reports whether the record carries a non-blank evidence URL.
func (r *Record) HasEvidence() bool {
	return r.EvidenceURL != nil && strings.TrimSpace(*r.EvidenceURL) != ""
}

// AppendComment adds text to the comment trail, preserving what's there.
func (r *Record) AppendComment(text string) {
	if text == "" {
		return
	}
	if r.Comment == "" {
		r.Comment = text
		return
	}
	r.Comment = r.Comment + "\n" + text
}
