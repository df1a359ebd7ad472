package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/scoring"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, values.DOP, cfg.Currency)
	assert.False(t, cfg.Telemetry.Enabled)

	assert.Equal(t, 24*time.Hour, cfg.Detector.FastWithdrawalWindow)
	assert.Equal(t, 0.90, cfg.Detector.FastWithdrawalRatio)
	assert.Equal(t, float64(500), cfg.Detector.RoundAmountUnit)

	assert.Equal(t, 85, cfg.Decision.ApproveScore)
	assert.Equal(t, 60, cfg.Decision.RejectScore)
	assert.Equal(t, 0.85, cfg.Decision.ConfidenceThreshold)
	assert.Equal(t, float64(50000), cfg.Decision.HighAmountThreshold)
	assert.Equal(t, 0.80, cfg.Decision.SafetyBuffer)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
environment: production
log_level: warn
scoring:
  minimum_wage: 25000
decision:
  approve_score: 90
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, float64(25000), cfg.Scoring.MinimumWage)
	assert.Equal(t, 90, cfg.Decision.ApproveScore)

	// Untouched sections keep their defaults.
	assert.Equal(t, 60, cfg.Decision.RejectScore)
	assert.Equal(t, 700, cfg.Scoring.CreditScoreFair)
}

func TestLoad_RejectsConfidenceWeightsNotSummingToOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
confidence:
  external_validation_weight: 1.0
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence weights must sum to 1.0")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CRE_ENVIRONMENT", "staging")
	t.Setenv("CRE_CURRENCY", values.USD)
	t.Setenv("CRE_TELEMETRY_ENABLED", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, values.USD, cfg.Currency)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestConfig_DetectorPolicy(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	got := cfg.DetectorPolicy()
	want := ledger.DefaultDetectorPolicy()

	assert.Equal(t, want.FastWithdrawalWindow, got.FastWithdrawalWindow)
	assert.True(t, got.FastWithdrawalRatio.Equal(want.FastWithdrawalRatio))
	assert.True(t, got.RoundAmountUnit.Equal(want.RoundAmountUnit))
	assert.Equal(t, want.InformalLenderMinTransfers, got.InformalLenderMinTransfers)
	assert.Equal(t, want.NSFKeywords, got.NSFKeywords)
	assert.Equal(t, want.SelfTransferKeywords, got.SelfTransferKeywords)
	assert.Equal(t, want.SelfTransferMinCount, got.SelfTransferMinCount)
	assert.True(t, got.SalaryVarianceTolerancePct.Equal(want.SalaryVarianceTolerancePct))
}

func TestConfig_ScoringPolicy(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	got := cfg.ScoringPolicy()
	want := scoring.DefaultPolicy()

	assert.Equal(t, want.CreditScorePoor, got.CreditScorePoor)
	assert.Equal(t, want.CreditScoreFair, got.CreditScoreFair)
	assert.Equal(t, want.ExcessiveInquiries, got.ExcessiveInquiries)
	assert.True(t, got.CashFlowCriticalPct.Equal(want.CashFlowCriticalPct))
	assert.True(t, got.CashFlowTightPct.Equal(want.CashFlowTightPct))
	assert.True(t, got.MinimumWage.Equal(want.MinimumWage))
	assert.True(t, got.HighDependencySalary.Equal(want.HighDependencySalary))
	assert.True(t, got.EstimatedExpenseRatio.Equal(want.EstimatedExpenseRatio))
	assert.True(t, got.SeveranceLoanRatio.Equal(want.SeveranceLoanRatio))
	assert.Equal(t, want.ProbationMonths, got.ProbationMonths)
	assert.Equal(t, want.ShortTenureMonths, got.ShortTenureMonths)
	assert.Equal(t, want.RecentMoveMonths, got.RecentMoveMonths)
}

func TestConfig_PolicyCurrencyFollowsConfig(t *testing.T) {
	t.Setenv("CRE_CURRENCY", values.USD)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, values.USD, cfg.ScoringPolicy().MinimumWage.Currency())
	assert.Equal(t, values.USD, cfg.DecisionPolicy().HighAmountThreshold.Currency())
}
