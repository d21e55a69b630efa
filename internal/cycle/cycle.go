// Package cycle derives compliance cycles: the fixed-length window over which
// a practitioner must accumulate the active rule's required credits. Cycles
// are computed fresh on every query and never persisted.
package cycle

import (
	"time"

	id "cpdtrack/pkg/domain"
)

// Status describes where a practitioner stands in their cycle.
type Status string

const (
	StatusInProgress      Status = "InProgress"
	StatusCompleted       Status = "Completed"
	StatusOverdue         Status = "Overdue"
	StatusNearingDeadline Status = "NearingDeadline"
)

// nearingDeadlineDays is the remaining-days threshold below which an
// unfinished cycle is flagged.
const nearingDeadlineDays = 180

// ComplianceCycle is the derived state of one practitioner's current cycle.
type ComplianceCycle struct {
	PractitionerID  id.PractitionerID
	WindowStart     time.Time
	WindowEnd       time.Time
	RequiredCredits float64
	AchievedCredits float64
	CompletionPct   float64
	Status          Status
	// DaysRemaining is floored at zero for display; Status captures overdue.
	DaysRemaining int
}

// Statistics aggregates cycle standing over a set of practitioners. The
// percentage bucketing here is deliberately coarser than the per-cycle
// status: both views are part of the contract.
type Statistics struct {
	Total             int
	Compliant         int
	AtRisk            int
	NonCompliant      int
	AverageCompletion float64
}
