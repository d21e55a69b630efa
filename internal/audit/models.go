package audit

import (
	"time"

	id "cpdtrack/pkg/domain"
)

// Action names the operations the audit trail records.
const (
	ActionSubmissionCreate  = "submission.create"
	ActionSubmissionApprove = "submission.approve"
	ActionSubmissionReject  = "submission.reject"
	ActionSubmissionRevoke  = "submission.revoke"
	ActionSubmissionEdit    = "submission.edit"
	ActionBulkImport        = "submission.bulk_import"
	ActionDeadlineSweep     = "compliance.deadline_sweep"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    string
	// RecordID points at the affected submission, when there is a single one.
	RecordID *id.SubmissionID
	ActorID  id.UserID
	// Details carries action-specific fields, e.g. bulk import totals
	// {type, totalCount, successCount, errorCount}.
	Details   map[string]any
	IPAddress string
}
