package submission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpdtrack/internal/audit"
	"cpdtrack/internal/practitioner"
	id "cpdtrack/pkg/domain"
	dErrors "cpdtrack/pkg/domain-errors"
	"cpdtrack/pkg/requestcontext"
)

var (
	testNow   = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	testActor = id.NewUserID()
)

type lifecycleFixture struct {
	submissions   *InMemoryStore
	practitioners *practitioner.InMemoryStore
	auditSink     *audit.InMemoryStore
	lifecycle     *Lifecycle
}

func newLifecycleFixture() *lifecycleFixture {
	submissions := NewInMemoryStore()
	practitioners := practitioner.NewInMemoryStore()
	auditSink := audit.NewInMemoryStore()
	return &lifecycleFixture{
		submissions:   submissions,
		practitioners: practitioners,
		auditSink:     auditSink,
		lifecycle:     NewLifecycle(submissions, practitioners, audit.NewService(auditSink, nil), nil),
	}
}

func lifecycleCtx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), testNow)
	return requestcontext.WithActorID(ctx, testActor)
}

func pendingRecord() Record {
	return Record{
		ID:             id.NewSubmissionID(),
		PractitionerID: id.NewPractitionerID(),
		ActivityName:   "Hospital infection control workshop",
		ActivityDate:   testNow.AddDate(0, -1, 0),
		Status:         StatusPending,
		SubmittedBy:    id.NewUserID(),
		CreationMethod: CreatedIndividually,
		CreatedAt:      testNow.AddDate(0, -1, 0),
	}
}

func TestApprove(t *testing.T) {
	t.Run("pending becomes approved with metadata", func(t *testing.T) {
		f := newLifecycleFixture()
		record := pendingRecord()
		f.submissions.Put(record)

		approved, err := f.lifecycle.Approve(lifecycleCtx(), record.ID, "looks good")
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, approved.Status)
		require.NotNil(t, approved.ApprovedAt)
		assert.True(t, approved.ApprovedAt.Equal(testNow))
		require.NotNil(t, approved.ApprovedBy)
		assert.Equal(t, testActor, *approved.ApprovedBy)
		assert.Equal(t, "looks good", approved.Comment)
	})

	t.Run("approving twice fails", func(t *testing.T) {
		f := newLifecycleFixture()
		record := pendingRecord()
		record.Status = StatusApproved
		f.submissions.Put(record)

		_, err := f.lifecycle.Approve(lifecycleCtx(), record.ID, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("unknown submission is not found", func(t *testing.T) {
		f := newLifecycleFixture()
		_, err := f.lifecycle.Approve(lifecycleCtx(), id.NewSubmissionID(), "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestReject(t *testing.T) {
	t.Run("requires a reason", func(t *testing.T) {
		f := newLifecycleFixture()
		record := pendingRecord()
		f.submissions.Put(record)

		_, err := f.lifecycle.Reject(lifecycleCtx(), record.ID, "   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("pending becomes rejected", func(t *testing.T) {
		f := newLifecycleFixture()
		record := pendingRecord()
		f.submissions.Put(record)

		rejected, err := f.lifecycle.Reject(lifecycleCtx(), record.ID, "missing certificate")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, rejected.Status)
		assert.Equal(t, "missing certificate", rejected.Comment)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		f := newLifecycleFixture()
		record := pendingRecord()
		record.Status = StatusRejected
		f.submissions.Put(record)

		_, err := f.lifecycle.Approve(lifecycleCtx(), record.ID, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = f.lifecycle.Revoke(lifecycleCtx(), record.ID, "x")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// TestRevoke verifies that revocation returns an approved submission to
// Pending, clears the approval metadata, and appends the reason to the
// comment trail instead of overwriting it.
func TestRevoke(t *testing.T) {
	f := newLifecycleFixture()
	record := pendingRecord()
	approvedAt := testNow.AddDate(0, 0, -3)
	approver := id.NewUserID()
	record.Status = StatusApproved
	record.ApprovedAt = &approvedAt
	record.ApprovedBy = &approver
	record.Comment = "approved after review"
	f.submissions.Put(record)

	revoked, err := f.lifecycle.Revoke(lifecycleCtx(), record.ID, "data error")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, revoked.Status)
	assert.Nil(t, revoked.ApprovedAt)
	assert.Nil(t, revoked.ApprovedBy)
	assert.Equal(t, "approved after review\ndata error", revoked.Comment)

	t.Run("reason required", func(t *testing.T) {
		_, err := f.lifecycle.Revoke(lifecycleCtx(), record.ID, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("pending cannot be revoked", func(t *testing.T) {
		_, err := f.lifecycle.Revoke(lifecycleCtx(), record.ID, "again")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestRevokeMany(t *testing.T) {
	f := newLifecycleFixture()

	approved := pendingRecord()
	approved.Status = StatusApproved
	f.submissions.Put(approved)

	stillPending := pendingRecord()
	f.submissions.Put(stillPending)

	result, err := f.lifecycle.RevokeMany(lifecycleCtx(),
		[]id.SubmissionID{approved.ID, stillPending.ID, id.NewSubmissionID()}, "audit finding")
	require.NoError(t, err)

	assert.Equal(t, []id.SubmissionID{approved.ID}, result.Revoked)
	require.Len(t, result.Errors, 2, "failures are reported per submission, not collapsed")
}

func TestApplyEdit(t *testing.T) {
	unitID := id.NewUnitID()

	seed := func(f *lifecycleFixture) Record {
		record := pendingRecord()
		f.submissions.Put(record)
		f.practitioners.Put(practitioner.Practitioner{
			ID:     record.PractitionerID,
			UnitID: unitID,
		})
		return record
	}

	t.Run("updates mutable fields", func(t *testing.T) {
		f := newLifecycleFixture()
		record := seed(f)

		name := "Renamed workshop"
		hours := 4.5
		updated, err := f.lifecycle.ApplyEdit(lifecycleCtx(), record.ID, nil, Edit{
			ActivityName: &name,
			Hours:        &hours,
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed workshop", updated.ActivityName)
		assert.Equal(t, 4.5, *updated.Hours)
		// Practitioner and submitter references are immutable.
		assert.Equal(t, record.PractitionerID, updated.PractitionerID)
		assert.Equal(t, record.SubmittedBy, updated.SubmittedBy)
	})

	t.Run("non-pending submission cannot be edited", func(t *testing.T) {
		f := newLifecycleFixture()
		record := seed(f)
		record.Status = StatusApproved
		f.submissions.Put(record)

		_, err := f.lifecycle.ApplyEdit(lifecycleCtx(), record.ID, nil, Edit{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("matching unit passes the tenant check", func(t *testing.T) {
		f := newLifecycleFixture()
		record := seed(f)

		_, err := f.lifecycle.ApplyEdit(lifecycleCtx(), record.ID, &unitID, Edit{})
		require.NoError(t, err)
	})

	t.Run("foreign unit is denied", func(t *testing.T) {
		f := newLifecycleFixture()
		record := seed(f)

		otherUnit := id.NewUnitID()
		_, err := f.lifecycle.ApplyEdit(lifecycleCtx(), record.ID, &otherUnit, Edit{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestAppendComment(t *testing.T) {
	var record Record
	record.AppendComment("first")
	record.AppendComment("")
	record.AppendComment("second")
	assert.Equal(t, "first\nsecond", record.Comment)
}
