package scoring

import (
	"github.com/davidleathers/credit-risk-engine/internal/domain/errors"
)

// baseScore is the sum of all variable allocations
const baseScore = 100

// Engine computes the deduction-based risk score. It is a pure reduction
// over the rule table; it holds no mutable state and is safe for concurrent
// use across cases.
type Engine struct {
	policy Policy
	rules  []Rule
}

// NewEngine creates a scoring engine with the given policy
func NewEngine(policy Policy) *Engine {
	return &Engine{
		policy: policy,
		rules:  Rules(),
	}
}

// Policy returns the calibration the engine was built with
func (e *Engine) Policy() Policy {
	return e.policy
}

// Score evaluates the full rule table against the input. Each variable
// starts at its allocation and loses the points of every applicable rule,
// floored at zero; the final score is the clamped sum. Missing optional
// facts make rules inapplicable, never a penalty.
func (e *Engine) Score(in Input) (*Result, error) {
	if err := in.Loan.Validate(); err != nil {
		return nil, err
	}

	var deductions []DeductionRecord
	for _, rule := range e.rules {
		applies, evidence := rule.Applies(in, e.policy)
		if !applies {
			continue
		}
		deductions = append(deductions, DeductionRecord{
			Variable: rule.Variable,
			RuleID:   rule.ID,
			Flag:     rule.Flag,
			Points:   rule.Points,
			Evidence: evidence,
		})
	}

	breakdown, err := buildBreakdown(deductions)
	if err != nil {
		return nil, err
	}

	finalScore := clampScore(breakdown.Total())

	totalDeductions := 0
	flags := make([]string, 0, len(deductions))
	for _, d := range deductions {
		totalDeductions += d.Points
		flags = append(flags, d.Flag)
	}

	return &Result{
		FinalScore:      finalScore,
		BaseScore:       baseScore,
		TotalDeductions: totalDeductions,
		Breakdown:       breakdown,
		Deductions:      deductions,
		Flags:           flags,
		Band:            RiskBandForScore(finalScore),
	}, nil
}

// buildBreakdown reconstructs each variable's score from the deduction
// records and verifies the arithmetic invariant: the realized score must be
// exactly max(0, allocation - deductions). A mismatch is a fatal programming
// error, never corrected silently.
func buildBreakdown(deductions []DeductionRecord) (Breakdown, error) {
	charged := make(map[Variable]int, len(VariableOrder))
	for _, d := range deductions {
		if d.Points < 0 {
			return Breakdown{}, errors.ErrScoreInconsistency.WithDetails(map[string]interface{}{
				"rule_id": d.RuleID,
				"points":  d.Points,
			})
		}
		charged[d.Variable] += d.Points
	}

	var b Breakdown
	for _, v := range VariableOrder {
		score := v.MaxPoints() - charged[v]
		if score < 0 {
			score = 0
		}
		switch v {
		case VariableCreditHistory:
			b.CreditHistory = score
		case VariablePaymentCapacity:
			b.PaymentCapacity = score
		case VariableStability:
			b.Stability = score
		case VariableCollateral:
			b.Collateral = score
		case VariablePaymentMorality:
			b.PaymentMorality = score
		default:
			return Breakdown{}, errors.ErrScoreInconsistency.WithDetails(map[string]interface{}{
				"variable": string(v),
			})
		}
	}
	return b, nil
}

// Verify re-derives the breakdown from a result's deduction list and checks
// it against the recorded breakdown and final score. Callers that persist or
// transmit results use this to guarantee the audit trail fully explains the
// score.
func Verify(r *Result) error {
	expected, err := buildBreakdown(r.Deductions)
	if err != nil {
		return err
	}
	if expected != r.Breakdown {
		return errors.ErrScoreInconsistency.WithDetails(map[string]interface{}{
			"expected": expected,
			"actual":   r.Breakdown,
		})
	}
	if clampScore(expected.Total()) != r.FinalScore {
		return errors.ErrScoreInconsistency.WithDetails(map[string]interface{}{
			"expected_score": clampScore(expected.Total()),
			"actual_score":   r.FinalScore,
		})
	}
	return nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
