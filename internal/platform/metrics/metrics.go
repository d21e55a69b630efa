package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SubmissionTransitions *prometheus.CounterVec
	BulkRowsInserted      prometheus.Counter
	BulkConflicts         prometheus.Counter
	CohortResolutions     *prometheus.CounterVec
	CohortPagesFetched    prometheus.Counter
	SweepCyclesFlagged    *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SubmissionTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cpdtrack_submission_transitions_total",
			Help: "Submission lifecycle transitions by kind (approve, reject, revoke, edit).",
		}, []string{"transition"}),
		BulkRowsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cpdtrack_bulk_rows_inserted_total",
			Help: "Submission rows written by the bulk writer.",
		}),
		BulkConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cpdtrack_bulk_conflicts_total",
			Help: "Bulk drafts skipped because the practitioner/catalog pair already existed.",
		}),
		CohortResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cpdtrack_cohort_resolutions_total",
			Help: "Cohort resolutions by selection mode.",
		}, []string{"mode"}),
		CohortPagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cpdtrack_cohort_pages_fetched_total",
			Help: "Practitioner pages fetched during all-filtered cohort resolution.",
		}),
		SweepCyclesFlagged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cpdtrack_sweep_cycles_flagged_total",
			Help: "Compliance cycles flagged by the deadline sweep, by status.",
		}, []string{"status"}),
	}
}

// RecordTransition increments the lifecycle transition counter.
func (m *Metrics) RecordTransition(transition string) {
	if m == nil {
		return
	}
	m.SubmissionTransitions.WithLabelValues(transition).Inc()
}

// RecordBulkOutcome tracks inserted and conflicted rows of one bulk write.
func (m *Metrics) RecordBulkOutcome(inserted, conflicts int) {
	if m == nil {
		return
	}
	m.BulkRowsInserted.Add(float64(inserted))
	m.BulkConflicts.Add(float64(conflicts))
}

// RecordSweepFlag counts one cycle flagged by the deadline sweep.
func (m *Metrics) RecordSweepFlag(status string) {
	if m == nil {
		return
	}
	m.SweepCyclesFlagged.WithLabelValues(status).Inc()
}

// RecordCohortResolution tracks one cohort resolution and its page count.
func (m *Metrics) RecordCohortResolution(mode string, pages int) {
	if m == nil {
		return
	}
	m.CohortResolutions.WithLabelValues(mode).Inc()
	m.CohortPagesFetched.Add(float64(pages))
}
