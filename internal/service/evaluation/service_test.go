package evaluation_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/scoring"
	"github.com/davidleathers/credit-risk-engine/internal/service/evaluation"
	"github.com/davidleathers/credit-risk-engine/internal/service/narrative"
	"github.com/davidleathers/credit-risk-engine/internal/service/underwriting"
	"github.com/davidleathers/credit-risk-engine/internal/testutil/fixtures"
)

func newTestService() *evaluation.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return evaluation.NewService(
		ledger.NewDetector(ledger.DefaultDetectorPolicy()),
		scoring.NewEngine(scoring.DefaultPolicy()),
		underwriting.NewEstimator(underwriting.DefaultConfidenceWeights()),
		underwriting.NewMatrix(underwriting.DefaultDecisionPolicy()),
		logger,
		nil,
	)
}

func TestService_Evaluate_CleanCase(t *testing.T) {
	svc := newTestService()
	req := fixtures.NewCaseBuilder(t).Build()

	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req.CaseID, result.CaseID)
	assert.Equal(t, req.AsOf, result.AsOf)
	assert.Empty(t, result.Findings.Detected())

	assert.Equal(t, 100, result.Score.FinalScore)
	assert.Equal(t, scoring.RiskBandLow, result.Score.Band)
	assert.Empty(t, result.Score.Deductions)

	assert.InDelta(t, 0.985, result.Confidence.Score, 0.0001)

	assert.Equal(t, underwriting.VerdictApproved, result.Decision.Verdict)
	assert.False(t, result.Decision.RequiresHumanReview)
	assert.Nil(t, result.Decision.SuggestedAmount)

	assert.Contains(t, result.Narrative, "Maria Perez")
	assert.Contains(t, result.Narrative, "APROBAR")
}

func TestService_Evaluate_InformalLenderLedger(t *testing.T) {
	svc := newTestService()

	b := fixtures.NewLedgerBuilder(t).WithOpeningBalance("20000")
	for m := 5; m >= 1; m-- {
		payday := fixtures.AsOf.AddDate(0, -m, 0)
		b.WithSalaryDeposit(payday, "45000")
		b.WithDebit(payday.AddDate(0, 0, 5), "SUPERMERCADO", "8137.45")
	}
	last := fixtures.AsOf.AddDate(0, -1, 0)
	b.WithTransfer(last.AddDate(0, 0, 10), "PAGO JUAN PRESTAMO", "2500")
	b.WithTransfer(last.AddDate(0, 0, 17), "PAGO JUAN PRESTAMO", "2500")
	b.WithTransfer(last.AddDate(0, 0, 24), "PAGO JUAN PRESTAMO", "2500")

	req := fixtures.NewCaseBuilder(t).WithLedger(b.Build()).Build()

	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)

	require.True(t, result.Findings.InformalLender.Detected)
	assert.Equal(t, 3, result.Findings.InformalLender.Count)

	require.Len(t, result.Score.Deductions, 1)
	assert.Equal(t, "E-02", result.Score.Deductions[0].RuleID)
	assert.Equal(t, 85, result.Score.FinalScore)
	assert.Contains(t, result.Score.Flags, "INFORMAL_LENDER_DETECTED")
}

func TestService_Evaluate_ManualReviewSuggestsAmount(t *testing.T) {
	svc := newTestService()

	req := fixtures.NewCaseBuilder(t).WithBureauScore(580).Build()
	req.Profile.HasVehicle = false

	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)

	// A-01 (15) and D-01 (3) leave the score in the manual-review band.
	assert.Equal(t, 82, result.Score.FinalScore)
	assert.Equal(t, scoring.RiskBandMedium, result.Score.Band)

	assert.Equal(t, underwriting.VerdictManualReview, result.Decision.Verdict)
	assert.Contains(t, result.Decision.Flags, underwriting.FlagMediumRisk)
	assert.True(t, result.Decision.RequiresHumanReview)

	// Capacity defaults to net income less the estimated expense share:
	// (45000 - 18000) x 12 x 0.80.
	require.NotNil(t, result.Decision.SuggestedAmount)
	assert.Equal(t, "259200.00 DOP", result.Decision.SuggestedAmount.String())

	assert.Contains(t, result.Narrative, "REVISION MANUAL")
	assert.Contains(t, result.Narrative, "Monto sugerido: 259200.00 DOP")
}

func TestService_Evaluate_HighAmountOverride(t *testing.T) {
	svc := newTestService()
	req := fixtures.NewCaseBuilder(t).WithLoan("60000", 12).Build()

	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Score.FinalScore)
	assert.Equal(t, underwriting.VerdictManualReview, result.Decision.Verdict)
	assert.Contains(t, result.Decision.Flags, underwriting.FlagHighAmount)
	assert.Nil(t, result.Decision.SuggestedAmount)
}

func TestService_Evaluate_SuppliedSeveranceFeedsGuaranteeRule(t *testing.T) {
	svc := newTestService()
	req := fixtures.NewCaseBuilder(t).WithSeverance("5000").Build()

	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, result.Score.Deductions, 1)
	assert.Equal(t, "D-02", result.Score.Deductions[0].RuleID)
	assert.Contains(t, result.Score.Flags, "INSUFFICIENT_GUARANTEE")
	assert.Equal(t, 95, result.Score.FinalScore)
}

func TestService_Evaluate_EnglishNarrative(t *testing.T) {
	svc := newTestService()
	req := fixtures.NewCaseBuilder(t).Build()
	req.Language = narrative.LanguageEnglish

	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, result.Narrative, "APPROVE")
	assert.NotContains(t, result.Narrative, "APROBAR")
}

func TestService_Evaluate_InvalidRequest(t *testing.T) {
	svc := newTestService()

	t.Run("missing case id", func(t *testing.T) {
		req := fixtures.NewCaseBuilder(t).Build()
		req.CaseID = uuid.Nil

		result, err := svc.Evaluate(context.Background(), req)
		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("invalid loan term", func(t *testing.T) {
		req := fixtures.NewCaseBuilder(t).WithLoan("30000", 0).Build()

		result, err := svc.Evaluate(context.Background(), req)
		require.Error(t, err)
		assert.Nil(t, result)
	})
}

func TestService_Evaluate_Deterministic(t *testing.T) {
	svc := newTestService()
	req := fixtures.NewCaseBuilder(t).WithBureauScore(640).Build()

	first, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, first, second)
}
