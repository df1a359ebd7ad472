package scoring

// Variable identifies one of the five weighted scoring dimensions
type Variable string

const (
	VariableCreditHistory   Variable = "credit_history"
	VariablePaymentCapacity Variable = "payment_capacity"
	VariableStability       Variable = "stability"
	VariableCollateral      Variable = "collateral"
	VariablePaymentMorality Variable = "payment_morality"
)

// VariableOrder fixes evaluation and reporting order (A through E)
var VariableOrder = []Variable{
	VariableCreditHistory,
	VariablePaymentCapacity,
	VariableStability,
	VariableCollateral,
	VariablePaymentMorality,
}

// Letter returns the variable's short identifier (A-E)
func (v Variable) Letter() string {
	switch v {
	case VariableCreditHistory:
		return "A"
	case VariablePaymentCapacity:
		return "B"
	case VariableStability:
		return "C"
	case VariableCollateral:
		return "D"
	case VariablePaymentMorality:
		return "E"
	default:
		return "?"
	}
}

// MaxPoints returns the variable's maximum allocation
func (v Variable) MaxPoints() int {
	switch v {
	case VariableCreditHistory, VariablePaymentCapacity:
		return 25
	case VariableStability, VariableCollateral:
		return 15
	case VariablePaymentMorality:
		return 20
	default:
		return 0
	}
}

// DeductionRecord is an append-only audit entry explaining one point loss.
// The full deduction list reconstructs the gap between each variable's
// allocation and its realized score.
type DeductionRecord struct {
	Variable Variable `json:"variable"`
	RuleID   string   `json:"rule_id"`
	Flag     string   `json:"flag"`
	Points   int      `json:"points"`
	Evidence string   `json:"evidence"`
}

// Breakdown holds the realized score per variable, each floored at zero and
// capped at its allocation.
type Breakdown struct {
	CreditHistory   int `json:"credit_history"`
	PaymentCapacity int `json:"payment_capacity"`
	Stability       int `json:"stability"`
	Collateral      int `json:"collateral"`
	PaymentMorality int `json:"payment_morality"`
}

// ForVariable returns the realized score for the given variable
func (b Breakdown) ForVariable(v Variable) int {
	switch v {
	case VariableCreditHistory:
		return b.CreditHistory
	case VariablePaymentCapacity:
		return b.PaymentCapacity
	case VariableStability:
		return b.Stability
	case VariableCollateral:
		return b.Collateral
	case VariablePaymentMorality:
		return b.PaymentMorality
	default:
		return 0
	}
}

// Total sums the five variable scores
func (b Breakdown) Total() int {
	return b.CreditHistory + b.PaymentCapacity + b.Stability + b.Collateral + b.PaymentMorality
}

// RiskBand is the four-level categorical mapping of the numeric score
type RiskBand string

const (
	RiskBandLow      RiskBand = "LOW"
	RiskBandMedium   RiskBand = "MEDIUM"
	RiskBandHigh     RiskBand = "HIGH"
	RiskBandCritical RiskBand = "CRITICAL"
)

// RiskBandForScore maps a final score to its band. Banding and decisioning
// must use the same score value; this is the single mapping path.
func RiskBandForScore(score int) RiskBand {
	switch {
	case score >= 85:
		return RiskBandLow
	case score >= 70:
		return RiskBandMedium
	case score >= 60:
		return RiskBandHigh
	default:
		return RiskBandCritical
	}
}

// Result is the complete score calculation for one case
type Result struct {
	FinalScore      int               `json:"final_score"`
	BaseScore       int               `json:"base_score"`
	TotalDeductions int               `json:"total_deductions"`
	Breakdown       Breakdown         `json:"breakdown"`
	Deductions      []DeductionRecord `json:"deductions"`
	Flags           []string          `json:"flags"`
	Band            RiskBand          `json:"risk_band"`
}

// DeductionsFor returns the deduction records for one variable, in rule order
func (r *Result) DeductionsFor(v Variable) []DeductionRecord {
	var out []DeductionRecord
	for _, d := range r.Deductions {
		if d.Variable == v {
			out = append(out, d)
		}
	}
	return out
}
