package underwriting

import (
	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/applicant"
	"github.com/davidleathers/credit-risk-engine/internal/domain/errors"
	"github.com/davidleathers/credit-risk-engine/internal/domain/scoring"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// Verdict is the final lending decision
type Verdict string

const (
	VerdictApproved              Verdict = "APPROVED"
	VerdictApprovedPendingReview Verdict = "APPROVED_PENDING_REVIEW"
	VerdictManualReview          Verdict = "MANUAL_REVIEW"
	VerdictRejected              Verdict = "REJECTED"
)

// Decision-level flags merged with the scoring engine's flags
const (
	FlagHighAmount    = "HIGH_AMOUNT"
	FlagLowConfidence = "LOW_CONFIDENCE"
	FlagMediumRisk    = "MEDIUM_RISK"
	FlagHighRisk      = "HIGH_RISK"
	FlagCriticalRisk  = "CRITICAL_RISK"
)

// Decision is the actionable output of the matrix. SuggestedTerm is always
// nil: the loan amount is the only adjustable lever, term is never extended.
type Decision struct {
	Verdict             Verdict          `json:"verdict"`
	Band                scoring.RiskBand `json:"risk_band"`
	SuggestedAmount     *values.Money    `json:"suggested_amount,omitempty"`
	SuggestedTerm       *int             `json:"suggested_term,omitempty"`
	Flags               []string         `json:"flags"`
	RequiresHumanReview bool             `json:"requires_human_review"`
}

// DecisionPolicy carries the matrix thresholds
type DecisionPolicy struct {
	ApproveScore        int
	RejectScore         int
	ConfidenceThreshold float64
	HighAmountThreshold values.Money
	SafetyBuffer        decimal.Decimal
}

// DefaultDecisionPolicy returns the stakeholder-approved thresholds
func DefaultDecisionPolicy() DecisionPolicy {
	return DecisionPolicy{
		ApproveScore:        85,
		RejectScore:         60,
		ConfidenceThreshold: 0.85,
		HighAmountThreshold: values.MustNewMoneyFromString("50000", values.DOP),
		SafetyBuffer:        decimal.NewFromFloat(0.80),
	}
}

// Matrix turns score, confidence, and loan parameters into a decision. The
// rules form a strict priority chain evaluated top-down; the first matching
// rule wins.
type Matrix struct {
	policy DecisionPolicy
}

// NewMatrix creates a decision matrix with the given policy
func NewMatrix(policy DecisionPolicy) *Matrix {
	return &Matrix{policy: policy}
}

// Decide evaluates the priority chain:
//
//  1. amount above the high-amount threshold -> MANUAL_REVIEW, overriding
//     everything including a perfect score
//  2. score >= 85 and confidence >= 0.85 -> APPROVED
//  3. score >= 85 and confidence < 0.85  -> APPROVED_PENDING_REVIEW
//  4. 60 <= score < 85 -> MANUAL_REVIEW with a suggested reduced amount
//  5. score < 60 -> REJECTED
//
// paymentCapacity is the applicant's estimated free monthly cash, used only
// for the suggested counter-offer.
func (m *Matrix) Decide(score *scoring.Result, confidence ConfidenceResult, loan applicant.LoanRequest, paymentCapacity values.Money) (Decision, error) {
	if err := loan.Validate(); err != nil {
		return Decision{}, err
	}
	if score == nil {
		return Decision{}, errors.NewValidationError("MISSING_SCORE", "score result is required")
	}
	if err := scoring.Verify(score); err != nil {
		return Decision{}, err
	}

	d := Decision{
		Band:  score.Band,
		Flags: mergeFlags(score.Flags),
	}

	switch {
	case loan.Amount.GreaterThan(m.policy.HighAmountThreshold):
		d.Verdict = VerdictManualReview
		d.Flags = append(d.Flags, FlagHighAmount)

	case score.FinalScore >= m.policy.ApproveScore && confidence.Score >= m.policy.ConfidenceThreshold:
		d.Verdict = VerdictApproved

	case score.FinalScore >= m.policy.ApproveScore:
		d.Verdict = VerdictApprovedPendingReview
		d.Flags = append(d.Flags, FlagLowConfidence)

	case score.FinalScore >= m.policy.RejectScore:
		d.Verdict = VerdictManualReview
		if score.Band == scoring.RiskBandMedium {
			d.Flags = append(d.Flags, FlagMediumRisk)
		} else {
			d.Flags = append(d.Flags, FlagHighRisk)
		}
		suggested := m.suggestedAmount(paymentCapacity, loan.TermMonths)
		d.SuggestedAmount = &suggested

	default:
		d.Verdict = VerdictRejected
		d.Flags = append(d.Flags, FlagCriticalRisk)
	}

	d.RequiresHumanReview = d.Verdict != VerdictApproved
	return d, nil
}

// suggestedAmount is the conservative counter-offer for the manual-review
// band: capacity x term x 0.80 (a fixed 20% safety buffer). It is suggested
// even when it exceeds the requested amount; the reviewing analyst decides.
func (m *Matrix) suggestedAmount(paymentCapacity values.Money, termMonths int) values.Money {
	return paymentCapacity.
		Mul(decimal.NewFromInt(int64(termMonths))).
		Mul(m.policy.SafetyBuffer).
		RoundToCent()
}

// mergeFlags copies the scoring flags so decision-level flags accumulate
// rather than replace.
func mergeFlags(scoreFlags []string) []string {
	out := make([]string, len(scoreFlags))
	copy(out, scoreFlags)
	return out
}
