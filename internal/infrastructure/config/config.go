package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/scoring"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
	"github.com/davidleathers/credit-risk-engine/internal/service/underwriting"
)

// Config is the full engine configuration. Every detection and decisioning
// threshold that is policy rather than algorithm lives here, so calibration
// against real data is a config change, not a code change.
type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`
	Currency    string `koanf:"currency"`

	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Detector   DetectorConfig   `koanf:"detector"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Confidence ConfidenceConfig `koanf:"confidence"`
	Decision   DecisionConfig   `koanf:"decision"`
}

type TelemetryConfig struct {
	Enabled       bool          `koanf:"enabled"`
	OTLPEndpoint  string        `koanf:"otlp_endpoint"`
	SamplingRate  float64       `koanf:"sampling_rate"`
	ExportTimeout time.Duration `koanf:"export_timeout"`
	BatchTimeout  time.Duration `koanf:"batch_timeout"`
}

type DetectorConfig struct {
	FastWithdrawalWindow       time.Duration `koanf:"fast_withdrawal_window"`
	FastWithdrawalRatio        float64       `koanf:"fast_withdrawal_ratio"`
	RoundAmountUnit            float64       `koanf:"round_amount_unit"`
	InformalLenderMinTransfers int           `koanf:"informal_lender_min_transfers"`
	NSFKeywords                []string      `koanf:"nsf_keywords"`
	SelfTransferKeywords       []string      `koanf:"self_transfer_keywords"`
	SelfTransferMinCount       int           `koanf:"self_transfer_min_count"`
	SalaryVarianceTolerancePct float64       `koanf:"salary_variance_tolerance_pct"`
}

type ScoringConfig struct {
	CreditScorePoor       int     `koanf:"credit_score_poor"`
	CreditScoreFair       int     `koanf:"credit_score_fair"`
	ExcessiveInquiries    int     `koanf:"excessive_inquiries"`
	CashFlowCriticalPct   float64 `koanf:"cash_flow_critical_pct"`
	CashFlowTightPct      float64 `koanf:"cash_flow_tight_pct"`
	MinimumWage           float64 `koanf:"minimum_wage"`
	MinimumWageBufferPct  float64 `koanf:"minimum_wage_buffer_pct"`
	HighDependencyCount   int     `koanf:"high_dependency_count"`
	HighDependencySalary  float64 `koanf:"high_dependency_salary"`
	EstimatedExpenseRatio float64 `koanf:"estimated_expense_ratio"`
	ProbationMonths       int     `koanf:"probation_months"`
	ShortTenureMonths     int     `koanf:"short_tenure_months"`
	RecentMoveMonths      int     `koanf:"recent_move_months"`
	SeveranceLoanRatio    float64 `koanf:"severance_loan_ratio"`
}

type ConfidenceConfig struct {
	DocumentQualityWeight    float64 `koanf:"document_quality_weight"`
	DataCompletenessWeight   float64 `koanf:"data_completeness_weight"`
	CrossValidationWeight    float64 `koanf:"cross_validation_weight"`
	ExternalValidationWeight float64 `koanf:"external_validation_weight"`
	DeductionDensityWeight   float64 `koanf:"deduction_density_weight"`
}

type DecisionConfig struct {
	ApproveScore        int     `koanf:"approve_score"`
	RejectScore         int     `koanf:"reject_score"`
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
	HighAmountThreshold float64 `koanf:"high_amount_threshold"`
	SafetyBuffer        float64 `koanf:"safety_buffer"`
}

// Load reads configuration from defaults, an optional YAML file, and
// CRE_-prefixed environment variables, in that precedence order.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = "configs/config.yaml"
	}
	// Config file is optional; defaults plus env cover the common case.
	_ = k.Load(file.Provider(path), yaml.Parser())

	if err := k.Load(env.Provider("CRE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "CRE_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	sum := c.Confidence.DocumentQualityWeight +
		c.Confidence.DataCompletenessWeight +
		c.Confidence.CrossValidationWeight +
		c.Confidence.ExternalValidationWeight +
		c.Confidence.DeductionDensityWeight
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("confidence weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

func defaultConfig() *Config {
	detector := ledger.DefaultDetectorPolicy()
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Currency:    values.DOP,
		Telemetry: TelemetryConfig{
			Enabled:       false,
			OTLPEndpoint:  "localhost:4317",
			SamplingRate:  1.0,
			ExportTimeout: 30 * time.Second,
			BatchTimeout:  5 * time.Second,
		},
		Detector: DetectorConfig{
			FastWithdrawalWindow:       detector.FastWithdrawalWindow,
			FastWithdrawalRatio:        0.90,
			RoundAmountUnit:            500,
			InformalLenderMinTransfers: detector.InformalLenderMinTransfers,
			NSFKeywords:                detector.NSFKeywords,
			SelfTransferKeywords:       detector.SelfTransferKeywords,
			SelfTransferMinCount:       detector.SelfTransferMinCount,
			SalaryVarianceTolerancePct: 20,
		},
		Scoring: ScoringConfig{
			CreditScorePoor:       600,
			CreditScoreFair:       700,
			ExcessiveInquiries:    5,
			CashFlowCriticalPct:   0.10,
			CashFlowTightPct:      0.20,
			MinimumWage:           21000,
			MinimumWageBufferPct:  0.10,
			HighDependencyCount:   3,
			HighDependencySalary:  35000,
			EstimatedExpenseRatio: 0.40,
			ProbationMonths:       3,
			ShortTenureMonths:     12,
			RecentMoveMonths:      6,
			SeveranceLoanRatio:    0.20,
		},
		Confidence: ConfidenceConfig{
			DocumentQualityWeight:    0.30,
			DataCompletenessWeight:   0.25,
			CrossValidationWeight:    0.20,
			ExternalValidationWeight: 0.15,
			DeductionDensityWeight:   0.10,
		},
		Decision: DecisionConfig{
			ApproveScore:        85,
			RejectScore:         60,
			ConfidenceThreshold: 0.85,
			HighAmountThreshold: 50000,
			SafetyBuffer:        0.80,
		},
	}
}

// DetectorPolicy converts the config section into the domain policy
func (c *Config) DetectorPolicy() ledger.DetectorPolicy {
	return ledger.DetectorPolicy{
		FastWithdrawalWindow:       c.Detector.FastWithdrawalWindow,
		FastWithdrawalRatio:        decimal.NewFromFloat(c.Detector.FastWithdrawalRatio),
		RoundAmountUnit:            decimal.NewFromFloat(c.Detector.RoundAmountUnit),
		InformalLenderMinTransfers: c.Detector.InformalLenderMinTransfers,
		NSFKeywords:                c.Detector.NSFKeywords,
		SelfTransferKeywords:       c.Detector.SelfTransferKeywords,
		SelfTransferMinCount:       c.Detector.SelfTransferMinCount,
		SalaryVarianceTolerancePct: decimal.NewFromFloat(c.Detector.SalaryVarianceTolerancePct),
	}
}

// ScoringPolicy converts the config section into the domain policy
func (c *Config) ScoringPolicy() scoring.Policy {
	return scoring.Policy{
		CreditScorePoor:       c.Scoring.CreditScorePoor,
		CreditScoreFair:       c.Scoring.CreditScoreFair,
		ExcessiveInquiries:    c.Scoring.ExcessiveInquiries,
		CashFlowCriticalPct:   decimal.NewFromFloat(c.Scoring.CashFlowCriticalPct),
		CashFlowTightPct:      decimal.NewFromFloat(c.Scoring.CashFlowTightPct),
		MinimumWage:           values.MustNewMoney(decimal.NewFromFloat(c.Scoring.MinimumWage), c.Currency),
		MinimumWageBufferPct:  decimal.NewFromFloat(c.Scoring.MinimumWageBufferPct),
		HighDependencyCount:   c.Scoring.HighDependencyCount,
		HighDependencySalary:  values.MustNewMoney(decimal.NewFromFloat(c.Scoring.HighDependencySalary), c.Currency),
		EstimatedExpenseRatio: decimal.NewFromFloat(c.Scoring.EstimatedExpenseRatio),
		ProbationMonths:       c.Scoring.ProbationMonths,
		ShortTenureMonths:     c.Scoring.ShortTenureMonths,
		RecentMoveMonths:      c.Scoring.RecentMoveMonths,
		SeveranceLoanRatio:    decimal.NewFromFloat(c.Scoring.SeveranceLoanRatio),
	}
}

// ConfidenceWeights converts the config section into estimator weights
func (c *Config) ConfidenceWeights() underwriting.ConfidenceWeights {
	return underwriting.ConfidenceWeights{
		DocumentQuality:    c.Confidence.DocumentQualityWeight,
		DataCompleteness:   c.Confidence.DataCompletenessWeight,
		CrossValidation:    c.Confidence.CrossValidationWeight,
		ExternalValidation: c.Confidence.ExternalValidationWeight,
		DeductionDensity:   c.Confidence.DeductionDensityWeight,
	}
}

// DecisionPolicy converts the config section into the matrix policy
func (c *Config) DecisionPolicy() underwriting.DecisionPolicy {
	return underwriting.DecisionPolicy{
		ApproveScore:        c.Decision.ApproveScore,
		RejectScore:         c.Decision.RejectScore,
		ConfidenceThreshold: c.Decision.ConfidenceThreshold,
		HighAmountThreshold: values.MustNewMoney(decimal.NewFromFloat(c.Decision.HighAmountThreshold), c.Currency),
		SafetyBuffer:        decimal.NewFromFloat(c.Decision.SafetyBuffer),
	}
}
