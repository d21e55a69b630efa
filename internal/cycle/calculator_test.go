package cycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpdtrack/internal/audit"
	"cpdtrack/internal/catalog"
	"cpdtrack/internal/credit"
	"cpdtrack/internal/platform/logger"
	"cpdtrack/internal/practitioner"
	"cpdtrack/internal/rule"
	"cpdtrack/internal/submission"
	id "cpdtrack/pkg/domain"
	"cpdtrack/pkg/requestcontext"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), testNow)
}

type calculatorFixture struct {
	rules         *rule.InMemoryStore
	practitioners *practitioner.InMemoryStore
	submissions   *submission.InMemoryStore
	catalogs      *catalog.InMemoryStore
	calculator    *Calculator
}

func newCalculatorFixture() *calculatorFixture {
	rules := rule.NewInMemoryStore()
	practitioners := practitioner.NewInMemoryStore()
	submissions := submission.NewInMemoryStore()
	catalogs := catalog.NewInMemoryStore()
	resolver := rule.NewResolver(rules)
	aggregator := credit.NewAggregator(submissions, catalogs, resolver)
	return &calculatorFixture{
		rules:         rules,
		practitioners: practitioners,
		submissions:   submissions,
		catalogs:      catalogs,
		calculator:    NewCalculator(resolver, practitioners, aggregator),
	}
}

func (f *calculatorFixture) addRule(requiredTotal float64, cycleYears int) {
	f.rules.Put(rule.CreditRule{
		ID:            id.NewRuleID(),
		RequiredTotal: requiredTotal,
		CycleYears:    cycleYears,
		Active:        true,
		CreatedAt:     testNow.AddDate(-1, 0, 0),
	})
}

func (f *calculatorFixture) addPractitioner(licensedAt *time.Time) id.PractitionerID {
	p := practitioner.Practitioner{
		ID:              id.NewPractitionerID(),
		UnitID:          id.NewUnitID(),
		FullName:        "Dr. Example",
		WorkStatus:      practitioner.WorkStatusActive,
		LicenseIssuedAt: licensedAt,
	}
	f.practitioners.Put(p)
	return p.ID
}

func (f *calculatorFixture) addSubmission(practitionerID id.PractitionerID, credits float64, status submission.Status, activityDate time.Time) {
	f.submissions.Put(submission.Record{
		ID:             id.NewSubmissionID(),
		PractitionerID: practitionerID,
		ActivityDate:   activityDate,
		Credits:        &credits,
		Status:         status,
	})
}

// A practitioner licensed 2020-01-01 under a 120-credit 5-year rule with
// approved 40 + 50 and a rejected 1000 inside the window: achieved 90,
// completion 75%, still in progress.
func TestCompute_AchievedAndCompletion(t *testing.T) {
	f := newCalculatorFixture()
	f.addRule(120, 5)
	licensed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	practitionerID := f.addPractitioner(&licensed)

	f.addSubmission(practitionerID, 40, submission.StatusApproved, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC))
	f.addSubmission(practitionerID, 50, submission.StatusApproved, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC))
	f.addSubmission(practitionerID, 1000, submission.StatusRejected, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))

	computed, err := f.calculator.Compute(testCtx(), practitionerID)
	require.NoError(t, err)
	require.NotNil(t, computed)

	assert.Equal(t, licensed, computed.WindowStart)
	assert.Equal(t, licensed.AddDate(5, 0, 0), computed.WindowEnd)
	assert.Equal(t, 90.0, computed.AchievedCredits)
	assert.Equal(t, 75.0, computed.CompletionPct)
	assert.Equal(t, StatusInProgress, computed.Status)
	assert.Greater(t, computed.DaysRemaining, nearingDeadlineDays)
}

func TestCompute_NoActiveRuleReturnsNil(t *testing.T) {
	f := newCalculatorFixture()
	practitionerID := f.addPractitioner(nil)

	computed, err := f.calculator.Compute(testCtx(), practitionerID)
	require.NoError(t, err)
	assert.Nil(t, computed, "absence of policy is a defined state")
}

func TestCompute_MissingLicenseDateAnchorsAtNow(t *testing.T) {
	f := newCalculatorFixture()
	f.addRule(120, 5)
	practitionerID := f.addPractitioner(nil)

	computed, err := f.calculator.Compute(testCtx(), practitionerID)
	require.NoError(t, err)
	require.NotNil(t, computed)
	assert.Equal(t, testNow, computed.WindowStart)
	assert.Equal(t, testNow.AddDate(5, 0, 0), computed.WindowEnd)
}

func TestCompute_ZeroRequirementAlwaysCompleted(t *testing.T) {
	f := newCalculatorFixture()
	f.addRule(0, 5)
	// Window ended years ago; a rule demanding nothing still cannot make
	// the cycle overdue.
	licensed := testNow.AddDate(-10, 0, 0)
	practitionerID := f.addPractitioner(&licensed)

	computed, err := f.calculator.Compute(testCtx(), practitionerID)
	require.NoError(t, err)
	require.NotNil(t, computed)
	assert.Equal(t, 100.0, computed.CompletionPct)
	assert.Equal(t, StatusCompleted, computed.Status)
	assert.Equal(t, 0, computed.DaysRemaining)
}

func TestCompute_StatusThresholds(t *testing.T) {
	t.Run("completed at 100 percent", func(t *testing.T) {
		f := newCalculatorFixture()
		f.addRule(100, 5)
		licensed := testNow.AddDate(-1, 0, 0)
		practitionerID := f.addPractitioner(&licensed)
		f.addSubmission(practitionerID, 100, submission.StatusApproved, testNow.AddDate(0, -1, 0))

		computed, err := f.calculator.Compute(testCtx(), practitionerID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, computed.Status)
	})

	t.Run("overdue when the window has ended", func(t *testing.T) {
		f := newCalculatorFixture()
		f.addRule(100, 5)
		licensed := testNow.AddDate(-6, 0, 0)
		practitionerID := f.addPractitioner(&licensed)

		computed, err := f.calculator.Compute(testCtx(), practitionerID)
		require.NoError(t, err)
		assert.Equal(t, StatusOverdue, computed.Status)
		assert.Equal(t, 0, computed.DaysRemaining, "display value floors at zero")
	})

	t.Run("nearing deadline inside 180 days", func(t *testing.T) {
		f := newCalculatorFixture()
		f.addRule(100, 5)
		licensed := testNow.AddDate(-5, 0, 90) // ends 90 days from now
		practitionerID := f.addPractitioner(&licensed)

		computed, err := f.calculator.Compute(testCtx(), practitionerID)
		require.NoError(t, err)
		assert.Equal(t, StatusNearingDeadline, computed.Status)
		assert.InDelta(t, 90, computed.DaysRemaining, 1)
	})
}

func TestComputeStatistics(t *testing.T) {
	f := newCalculatorFixture()
	f.addRule(100, 5)
	licensed := testNow.AddDate(-1, 0, 0)

	compliant := f.addPractitioner(&licensed)
	f.addSubmission(compliant, 95, submission.StatusApproved, testNow.AddDate(0, -1, 0))

	atRisk := f.addPractitioner(&licensed)
	f.addSubmission(atRisk, 75, submission.StatusApproved, testNow.AddDate(0, -1, 0))

	nonCompliant := f.addPractitioner(&licensed)
	f.addSubmission(nonCompliant, 10, submission.StatusApproved, testNow.AddDate(0, -1, 0))

	unknown := id.NewPractitionerID() // no row; excluded from the average

	stats, err := f.calculator.ComputeStatistics(testCtx(),
		[]id.PractitionerID{compliant, atRisk, nonCompliant, unknown})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Compliant)
	assert.Equal(t, 1, stats.AtRisk)
	assert.Equal(t, 1, stats.NonCompliant)
	assert.Equal(t, 60.0, stats.AverageCompletion, "(95+75+10)/3")
}

func TestComputeStatistics_Empty(t *testing.T) {
	f := newCalculatorFixture()
	stats, err := f.calculator.ComputeStatistics(testCtx(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.AverageCompletion)
}

func TestSweeperFlagsAtRiskCycles(t *testing.T) {
	f := newCalculatorFixture()
	f.addRule(100, 5)

	healthy := testNow.AddDate(-1, 0, 0)
	f.addPractitioner(&healthy)

	endingSoon := testNow.AddDate(-5, 0, 60)
	f.addPractitioner(&endingSoon)

	ended := testNow.AddDate(-6, 0, 0)
	f.addPractitioner(&ended)

	auditSink := audit.NewInMemoryStore()
	sweeper := NewSweeper(f.calculator, f.practitioners,
		audit.NewService(auditSink, nil), logger.New("error"), nil, 500)

	result, err := sweeper.Run(testCtx())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 1, result.NearingDeadline)
	assert.Equal(t, 1, result.Overdue)
	assert.Len(t, auditSink.Events(), 2)
}
