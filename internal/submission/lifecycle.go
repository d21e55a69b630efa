package submission

import (
	"context"
	"errors"
	"strings"
	"time"

	"cpdtrack/internal/audit"
	"cpdtrack/internal/platform/metrics"
	"cpdtrack/internal/practitioner"
	id "cpdtrack/pkg/domain"
	dErrors "cpdtrack/pkg/domain-errors"
	"cpdtrack/pkg/platform/sentinel"
	"cpdtrack/pkg/requestcontext"
)

// Lifecycle drives the approval state machine:
//
//	Pending  → Approved | Rejected
//	Approved → Pending  (revocation, reason required)
//
// Rejected has no further transition. Edits are allowed only while Pending.
type Lifecycle struct {
	submissions   Store
	practitioners practitioner.Store
	audit         *audit.Service
	metrics       *metrics.Metrics
}

func NewLifecycle(submissions Store, practitioners practitioner.Store, auditSvc *audit.Service, m *metrics.Metrics) *Lifecycle {
	return &Lifecycle{
		submissions:   submissions,
		practitioners: practitioners,
		audit:         auditSvc,
		metrics:       m,
	}
}

// Approve moves a pending submission to Approved, recording the acting user
// and timestamp. The comment is optional and appended to the trail.
func (l *Lifecycle) Approve(ctx context.Context, submissionID id.SubmissionID, comment string) (*Record, error) {
	record, err := l.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusPending {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"only pending submissions can be approved, current status is %s", record.Status)
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	record.Status = StatusApproved
	record.ApprovedAt = &now
	if !actor.IsNil() {
		record.ApprovedBy = &actor
	}
	record.AppendComment(comment)

	if err := l.submissions.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist approval")
	}
	l.metrics.RecordTransition("approve")
	l.emit(ctx, audit.ActionSubmissionApprove, record.ID, map[string]any{"comment": comment})
	return record, nil
}

// Reject moves a pending submission to Rejected. The reason is mandatory.
func (l *Lifecycle) Reject(ctx context.Context, submissionID id.SubmissionID, reason string) (*Record, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rejection requires a reason")
	}
	record, err := l.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusPending {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"only pending submissions can be rejected, current status is %s", record.Status)
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	record.Status = StatusRejected
	record.ApprovedAt = &now
	if !actor.IsNil() {
		record.ApprovedBy = &actor
	}
	record.AppendComment(reason)

	if err := l.submissions.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist rejection")
	}
	l.metrics.RecordTransition("reject")
	l.emit(ctx, audit.ActionSubmissionReject, record.ID, map[string]any{"reason": reason})
	return record, nil
}

// Revoke moves an approved submission back to Pending, clearing the approval
// metadata. The reason is mandatory and appended to the comment trail so the
// original approval comment survives.
func (l *Lifecycle) Revoke(ctx context.Context, submissionID id.SubmissionID, reason string) (*Record, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "revocation requires a reason")
	}
	record, err := l.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusApproved {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"only approved submissions can be revoked, current status is %s", record.Status)
	}

	record.Status = StatusPending
	record.ApprovedBy = nil
	record.ApprovedAt = nil
	record.AppendComment(reason)

	if err := l.submissions.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist revocation")
	}
	l.metrics.RecordTransition("revoke")
	l.emit(ctx, audit.ActionSubmissionRevoke, record.ID, map[string]any{"reason": reason})
	return record, nil
}

// RevokeResult reports the per-submission outcome of a bulk revocation.
type RevokeResult struct {
	Revoked []id.SubmissionID
	Errors  []RevokeError
}

// RevokeError pairs a submission with the reason it could not be revoked.
type RevokeError struct {
	SubmissionID id.SubmissionID
	Err          string
}

// RevokeMany revokes each submission independently: one failure never aborts
// the rest, and the result reports both what succeeded and what did not.
func (l *Lifecycle) RevokeMany(ctx context.Context, submissionIDs []id.SubmissionID, reason string) (*RevokeResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "revocation requires a reason")
	}
	result := &RevokeResult{}
	for _, submissionID := range submissionIDs {
		if _, err := l.Revoke(ctx, submissionID, reason); err != nil {
			result.Errors = append(result.Errors, RevokeError{
				SubmissionID: submissionID,
				Err:          err.Error(),
			})
			continue
		}
		result.Revoked = append(result.Revoked, submissionID)
	}
	return result, nil
}

// Edit updates the mutable fields of a submission. Allowed only while the
// submission is Pending. When callerUnitID is set, the submission's
// practitioner must belong to that unit. The practitioner and original
// submitter references never change.
type Edit struct {
	CatalogID    *id.CatalogID
	ActivityName *string
	Role         *string
	ActivityDate *time.Time
	Hours        *float64
	Credits      *float64
	EvidenceURL  *string
}

func (l *Lifecycle) ApplyEdit(ctx context.Context, submissionID id.SubmissionID, callerUnitID *id.UnitID, edit Edit) (*Record, error) {
	record, err := l.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusPending {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"only pending submissions can be edited, current status is %s", record.Status)
	}
	if callerUnitID != nil {
		if err := l.checkTenant(ctx, record.PractitionerID, *callerUnitID); err != nil {
			return nil, err
		}
	}

	if edit.CatalogID != nil {
		record.CatalogID = edit.CatalogID
	}
	if edit.ActivityName != nil {
		record.ActivityName = *edit.ActivityName
	}
	if edit.Role != nil {
		record.Role = *edit.Role
	}
	if edit.ActivityDate != nil {
		record.ActivityDate = *edit.ActivityDate
	}
	if edit.Hours != nil {
		record.Hours = edit.Hours
	}
	if edit.Credits != nil {
		record.Credits = edit.Credits
	}
	if edit.EvidenceURL != nil {
		record.EvidenceURL = edit.EvidenceURL
	}

	if err := l.submissions.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist edit")
	}
	l.metrics.RecordTransition("edit")
	l.emit(ctx, audit.ActionSubmissionEdit, record.ID, nil)
	return record, nil
}

func (l *Lifecycle) checkTenant(ctx context.Context, practitionerID id.PractitionerID, callerUnitID id.UnitID) error {
	found, err := l.practitioners.FindByIDs(ctx, []id.PractitionerID{practitionerID})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "resolve practitioner for tenant check")
	}
	if len(found) == 0 {
		return dErrors.New(dErrors.CodeNotFound, "practitioner not found")
	}
	if found[0].UnitID != callerUnitID {
		return dErrors.New(dErrors.CodeForbidden, "submission belongs to another unit")
	}
	return nil
}

func (l *Lifecycle) load(ctx context.Context, submissionID id.SubmissionID) (*Record, error) {
	record, err := l.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load submission")
	}
	return record, nil
}

func (l *Lifecycle) emit(ctx context.Context, action string, submissionID id.SubmissionID, details map[string]any) {
	if l.audit == nil {
		return
	}
	l.audit.Emit(ctx, audit.Event{
		Action:   action,
		RecordID: &submissionID,
		Details:  details,
	})
}
