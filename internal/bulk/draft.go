// Package bulk writes one submission per resolved practitioner in a single
// transaction, tolerating pre-existing (practitioner, catalog) duplicates as
// conflicts rather than failures.
package bulk

import (
	"time"

	"cpdtrack/internal/submission"
	id "cpdtrack/pkg/domain"
)

// Template is the activity shared by every draft of one bulk submission.
type Template struct {
	CatalogID      *id.CatalogID
	ActivityName   string
	Role           string
	ActivityDate   time.Time
	Hours          *float64
	Credits        *float64
	EvidenceURL    *string
	SubmittedBy    id.UserID
	CreationMethod submission.CreationMethod
}

// Draft targets one practitioner with the shared template.
type Draft struct {
	PractitionerID id.PractitionerID
	Template       Template
}

// BuildDrafts pairs the template with each resolved practitioner.
func BuildDrafts(template Template, practitionerIDs []id.PractitionerID) []Draft {
	drafts := make([]Draft, len(practitionerIDs))
	for i, practitionerID := range practitionerIDs {
		drafts[i] = Draft{PractitionerID: practitionerID, Template: template}
	}
	return drafts
}

// record materializes the draft as a new submission row. Status is forced to
// Pending regardless of what the caller asked for.
func (d Draft) record(now time.Time) submission.Record {
	method := d.Template.CreationMethod
	if method == "" {
		method = submission.CreatedByBulk
	}
	return submission.Record{
		ID:             id.NewSubmissionID(),
		PractitionerID: d.PractitionerID,
		CatalogID:      d.Template.CatalogID,
		ActivityName:   d.Template.ActivityName,
		Role:           d.Template.Role,
		ActivityDate:   d.Template.ActivityDate,
		Hours:          d.Template.Hours,
		Credits:        d.Template.Credits,
		EvidenceURL:    d.Template.EvidenceURL,
		Status:         submission.StatusPending,
		SubmittedBy:    d.Template.SubmittedBy,
		CreationMethod: method,
		CreatedAt:      now,
	}
}
