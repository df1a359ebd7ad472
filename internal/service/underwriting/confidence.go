package underwriting

import (
	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// ConfidenceWeights are the relative weights of the five confidence factors.
// They must sum to 1.0; when external validation is skipped its weight is
// redistributed proportionally so the effective weights still sum to 1.0.
type ConfidenceWeights struct {
	DocumentQuality    float64 `json:"document_quality"`
	DataCompleteness   float64 `json:"data_completeness"`
	CrossValidation    float64 `json:"cross_validation"`
	ExternalValidation float64 `json:"external_validation"`
	DeductionDensity   float64 `json:"deduction_density"`
}

// DefaultConfidenceWeights returns the production weighting
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		DocumentQuality:    0.30,
		DataCompleteness:   0.25,
		CrossValidation:    0.20,
		ExternalValidation: 0.15,
		DeductionDensity:   0.10,
	}
}

// MinimumConfidence is the hard floor: confidence is never reported below
// this regardless of how little data is available.
const MinimumConfidence = 0.30

// DataQualitySignals are the data-availability inputs consumed by the
// estimator. They describe how reliable the analysis is, not how
// creditworthy the applicant is.
type DataQualitySignals struct {
	DocumentsRequired int `json:"documents_required"`
	DocumentsParsed   int `json:"documents_parsed"`
	DocumentErrors    int `json:"document_errors"`

	HasDetectedSalary bool `json:"has_detected_salary"`
	HasBureauScore    bool `json:"has_bureau_score"`
	HasAccountData    bool `json:"has_account_data"`
	HasEmploymentDate bool `json:"has_employment_date"`

	DeclaredSalary values.Money `json:"declared_salary"`
	ObservedSalary values.Money `json:"observed_salary"`

	// ExternalValidationSkipped marks a case where the business/employment
	// verification step was intentionally not run. Its weight is then
	// redistributed across the remaining factors.
	ExternalValidationSkipped bool    `json:"external_validation_skipped"`
	ExternalValidationScore   float64 `json:"external_validation_score"`

	DeductionCount int `json:"deduction_count"`
}

// ConfidenceFactor is one weighted component of the confidence score
type ConfidenceFactor struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// ConfidenceFactors is the per-factor breakdown, with effective weights
type ConfidenceFactors struct {
	DocumentQuality    ConfidenceFactor `json:"document_quality"`
	DataCompleteness   ConfidenceFactor `json:"data_completeness"`
	CrossValidation    ConfidenceFactor `json:"cross_validation"`
	ExternalValidation ConfidenceFactor `json:"external_validation"`
	DeductionDensity   ConfidenceFactor `json:"deduction_density"`
}

// ConfidenceResult is the estimator output: a scalar in [0.30, 1.0] plus the
// factor breakdown that produced it.
type ConfidenceResult struct {
	Score   float64           `json:"score"`
	Factors ConfidenceFactors `json:"factors"`
}

// Estimator computes the confidence score from data-quality signals. It is
// independent of the scoring engine; low data coverage lowers confidence,
// never the risk score.
type Estimator struct {
	weights   ConfidenceWeights
	tolerance decimal.Decimal
}

// NewEstimator creates an estimator with the given weights. The salary
// cross-validation tolerance is ±20%, matching the pattern detector.
func NewEstimator(weights ConfidenceWeights) *Estimator {
	return &Estimator{
		weights:   weights,
		tolerance: decimal.NewFromFloat(0.20),
	}
}

// Estimate computes the weighted confidence score, floored at
// MinimumConfidence.
func (e *Estimator) Estimate(sig DataQualitySignals) ConfidenceResult {
	weights := e.effectiveWeights(sig)

	factors := ConfidenceFactors{
		DocumentQuality:    ConfidenceFactor{Score: documentQualityScore(sig), Weight: weights.DocumentQuality},
		DataCompleteness:   ConfidenceFactor{Score: dataCompletenessScore(sig), Weight: weights.DataCompleteness},
		CrossValidation:    ConfidenceFactor{Score: e.crossValidationScore(sig), Weight: weights.CrossValidation},
		ExternalValidation: ConfidenceFactor{Score: externalValidationScore(sig), Weight: weights.ExternalValidation},
		DeductionDensity:   ConfidenceFactor{Score: deductionDensityScore(sig.DeductionCount), Weight: weights.DeductionDensity},
	}

	score := factors.DocumentQuality.Score*factors.DocumentQuality.Weight +
		factors.DataCompleteness.Score*factors.DataCompleteness.Weight +
		factors.CrossValidation.Score*factors.CrossValidation.Weight +
		factors.ExternalValidation.Score*factors.ExternalValidation.Weight +
		factors.DeductionDensity.Score*factors.DeductionDensity.Weight

	if score < MinimumConfidence {
		score = MinimumConfidence
	}
	if score > 1.0 {
		score = 1.0
	}

	return ConfidenceResult{Score: score, Factors: factors}
}

// effectiveWeights redistributes the external-validation weight
// proportionally across the remaining factors when the step was skipped, so
// the weighted sum is always computed over weights summing to 1.0.
func (e *Estimator) effectiveWeights(sig DataQualitySignals) ConfidenceWeights {
	if !sig.ExternalValidationSkipped {
		return e.weights
	}

	remaining := 1.0 - e.weights.ExternalValidation
	if remaining <= 0 {
		// Nothing left to redistribute over; keep the configured weights
		// and let the skipped factor score zero instead of dividing by it.
		return e.weights
	}
	return ConfidenceWeights{
		DocumentQuality:    e.weights.DocumentQuality / remaining,
		DataCompleteness:   e.weights.DataCompleteness / remaining,
		CrossValidation:    e.weights.CrossValidation / remaining,
		ExternalValidation: 0,
		DeductionDensity:   e.weights.DeductionDensity / remaining,
	}
}

// documentQualityScore is the fraction of required documents parsed without
// extraction errors. Errors cap the factor even when everything parsed.
func documentQualityScore(sig DataQualitySignals) float64 {
	if sig.DocumentsRequired <= 0 {
		return 0
	}

	ratio := float64(sig.DocumentsParsed) / float64(sig.DocumentsRequired)
	if ratio > 1.0 {
		ratio = 1.0
	}

	if sig.DocumentErrors > 0 {
		penalized := ratio * 0.8
		if penalized < 0.5 {
			return 0.5
		}
		return penalized
	}
	return ratio
}

// dataCompletenessScore is the fraction of required fields present: salary,
// bureau score, account data, employment start date.
func dataCompletenessScore(sig DataQualitySignals) float64 {
	present := 0
	for _, has := range []bool{
		sig.HasDetectedSalary,
		sig.HasBureauScore,
		sig.HasAccountData,
		sig.HasEmploymentDate,
	} {
		if has {
			present++
		}
	}
	return float64(present) / 4.0
}

// crossValidationScore is binary: 1.0 when declared and observed salary
// agree within tolerance, 0.0 when they do not. When either side is missing
// the check is indeterminate and scores neutral.
func (e *Estimator) crossValidationScore(sig DataQualitySignals) float64 {
	if !sig.DeclaredSalary.IsPositive() || !sig.ObservedSalary.IsPositive() {
		return 0.5
	}

	variance := sig.DeclaredSalary.Amount().Sub(sig.ObservedSalary.Amount()).Abs().
		Div(sig.DeclaredSalary.Amount())

	if variance.LessThanOrEqual(e.tolerance) {
		return 1.0
	}
	return 0.0
}

// externalValidationScore passes the verification strength through, clamped
// to [0,1]. A skipped step scores zero; its weight is redistributed so the
// zero never reaches the weighted sum.
func externalValidationScore(sig DataQualitySignals) float64 {
	if sig.ExternalValidationSkipped {
		return 0
	}
	if sig.ExternalValidationScore < 0 {
		return 0
	}
	if sig.ExternalValidationScore > 1 {
		return 1
	}
	return sig.ExternalValidationScore
}

// deductionDensityScore falls stepwise as more deduction rules fire: a case
// with many findings is interpreted with less certainty.
func deductionDensityScore(count int) float64 {
	switch {
	case count == 0:
		return 1.0
	case count <= 3:
		return 0.9
	case count <= 6:
		return 0.7
	case count <= 9:
		return 0.5
	default:
		return 0.3
	}
}
