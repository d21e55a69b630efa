package cycle

import (
	"context"

	"github.com/sirupsen/logrus"

	"cpdtrack/internal/audit"
	"cpdtrack/internal/platform/metrics"
	"cpdtrack/internal/practitioner"
)

// Sweeper walks the active practitioner roster on a schedule and flags
// cycles that are nearing their deadline or already overdue. It only records
// that the event occurred (log + audit trail); notification delivery belongs
// to an external system.
type Sweeper struct {
	calculator    *Calculator
	practitioners practitioner.Store
	audit         *audit.Service
	log           *logrus.Logger
	metrics       *metrics.Metrics
	pageSize      int
}

func NewSweeper(calculator *Calculator, practitioners practitioner.Store, auditSvc *audit.Service, log *logrus.Logger, m *metrics.Metrics, pageSize int) *Sweeper {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Sweeper{
		calculator:    calculator,
		practitioners: practitioners,
		audit:         auditSvc,
		log:           log,
		metrics:       m,
		pageSize:      pageSize,
	}
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Scanned         int
	NearingDeadline int
	Overdue         int
}

// Run scans all actively working practitioners page by page and flags those
// whose cycle is at risk. A per-practitioner compute failure is logged and
// skipped; only roster paging errors abort the sweep.
func (s *Sweeper) Run(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}
	filter := practitioner.Filter{WorkStatus: practitioner.WorkStatusActive}

	for offset := 0; ; offset += s.pageSize {
		page, err := s.practitioners.ListFiltered(ctx, filter, s.pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			result.Scanned++
			computed, err := s.calculator.Compute(ctx, p.ID)
			if err != nil {
				s.log.WithError(err).WithField("practitioner_id", p.ID).Warn("deadline sweep: cycle computation failed")
				continue
			}
			if computed == nil {
				// No active rule; nothing left to flag this run.
				return result, nil
			}
			switch computed.Status {
			case StatusNearingDeadline:
				result.NearingDeadline++
			case StatusOverdue:
				result.Overdue++
			default:
				continue
			}
			s.flag(ctx, computed)
		}
		if len(page) < s.pageSize {
			break
		}
	}

	s.log.WithFields(logrus.Fields{
		"scanned":          result.Scanned,
		"nearing_deadline": result.NearingDeadline,
		"overdue":          result.Overdue,
	}).Info("deadline sweep finished")
	return result, nil
}

func (s *Sweeper) flag(ctx context.Context, computed *ComplianceCycle) {
	s.log.WithFields(logrus.Fields{
		"practitioner_id": computed.PractitionerID,
		"status":          computed.Status,
		"days_remaining":  computed.DaysRemaining,
		"completion_pct":  computed.CompletionPct,
	}).Warn("compliance cycle at risk")

	s.metrics.RecordSweepFlag(string(computed.Status))

	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionDeadlineSweep,
		Details: map[string]any{
			"practitionerId": computed.PractitionerID.String(),
			"status":         string(computed.Status),
			"daysRemaining":  computed.DaysRemaining,
			"completionPct":  computed.CompletionPct,
		},
	})
}
