package scoring

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/applicant"
	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// Policy carries the calibration thresholds for the deduction rules
type Policy struct {
	CreditScorePoor    int
	CreditScoreFair    int
	ExcessiveInquiries int

	CashFlowCriticalPct   decimal.Decimal
	CashFlowTightPct      decimal.Decimal
	MinimumWage           values.Money
	MinimumWageBufferPct  decimal.Decimal
	HighDependencyCount   int
	HighDependencySalary  values.Money
	EstimatedExpenseRatio decimal.Decimal

	ProbationMonths   int
	ShortTenureMonths int
	RecentMoveMonths  int

	SeveranceLoanRatio decimal.Decimal
}

// DefaultPolicy returns the production calibration
func DefaultPolicy() Policy {
	return Policy{
		CreditScorePoor:       600,
		CreditScoreFair:       700,
		ExcessiveInquiries:    5,
		CashFlowCriticalPct:   decimal.NewFromFloat(0.10),
		CashFlowTightPct:      decimal.NewFromFloat(0.20),
		MinimumWage:           values.MustNewMoneyFromString("21000", values.DOP),
		MinimumWageBufferPct:  decimal.NewFromFloat(0.10),
		HighDependencyCount:   3,
		HighDependencySalary:  values.MustNewMoneyFromString("35000", values.DOP),
		EstimatedExpenseRatio: decimal.NewFromFloat(0.40),
		ProbationMonths:       3,
		ShortTenureMonths:     12,
		RecentMoveMonths:      6,
		SeveranceLoanRatio:    decimal.NewFromFloat(0.20),
	}
}

// Input gathers everything the rules may read. Optional facts are pointers;
// a nil fact means the rules that need it do not apply, never an automatic
// penalty.
type Input struct {
	Profile applicant.Profile
	Loan    applicant.LoanRequest
	Bureau  *applicant.BureauRecord

	Findings ledger.Findings

	// NetIncome is the resolved monthly income: mean of observed salary
	// deposits when present, declared salary otherwise. Zero when neither
	// is available, which makes the cash-flow rules inapplicable.
	NetIncome decimal.Decimal

	// MonthlyExpenses, when nil, is estimated from net income by policy.
	MonthlyExpenses *decimal.Decimal

	// Severance is the externally supplied labor-benefits amount.
	Severance *values.Money

	InterviewInconsistency bool
	LocationMismatch       bool

	// AsOf anchors tenure computations; the engine never reads the wall
	// clock, so identical inputs always produce identical output.
	AsOf time.Time
}

// cashFlowRatio computes (net income - expenses - bureau debt - proposed
// installment) / net income. The second return is false when net income is
// unavailable.
func (in Input) cashFlowRatio(p Policy) (decimal.Decimal, bool) {
	if !in.NetIncome.IsPositive() {
		return decimal.Zero, false
	}

	expenses := in.NetIncome.Mul(p.EstimatedExpenseRatio)
	if in.MonthlyExpenses != nil {
		expenses = *in.MonthlyExpenses
	}

	bureauDebt := decimal.Zero
	if in.Bureau != nil {
		bureauDebt = in.Bureau.MonthlyDebt.Amount()
	}

	disposable := in.NetIncome.Sub(expenses).Sub(bureauDebt).Sub(in.Loan.MonthlyInstallment())
	return disposable.Div(in.NetIncome), true
}

// Rule is one row of the deduction table: a stable identifier, the variable
// it charges against, the points it removes, and the predicate that decides
// whether it applies. Rules never exclude each other; every applicable rule
// within a variable fires and sums.
type Rule struct {
	ID       string
	Variable Variable
	Flag     string
	Points   int
	Applies  func(in Input, p Policy) (bool, string)
}

// Rules returns the deduction table in fixed evaluation order. The table is
// data: adding or removing a rule is a data change, not a control-flow
// change.
func Rules() []Rule {
	return []Rule{
		// Variable A: Credit History (25)
		{
			ID: "A-01", Variable: VariableCreditHistory, Flag: "POOR_CREDIT_HISTORY", Points: 15,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.Bureau == nil {
					return false, ""
				}
				if in.Bureau.Score < p.CreditScorePoor {
					return true, fmt.Sprintf("bureau score %d (below %d)", in.Bureau.Score, p.CreditScorePoor)
				}
				return false, ""
			},
		},
		{
			ID: "A-02", Variable: VariableCreditHistory, Flag: "FAIR_CREDIT_HISTORY", Points: 7,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.Bureau == nil {
					return false, ""
				}
				if in.Bureau.Score >= p.CreditScorePoor && in.Bureau.Score < p.CreditScoreFair {
					return true, fmt.Sprintf("bureau score %d (%d-%d)", in.Bureau.Score, p.CreditScorePoor, p.CreditScoreFair)
				}
				return false, ""
			},
		},
		{
			ID: "A-03", Variable: VariableCreditHistory, Flag: "EXCESSIVE_INQUIRIES", Points: 5,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.Bureau == nil {
					return false, ""
				}
				if in.Bureau.InquiriesLast6Months > p.ExcessiveInquiries {
					return true, fmt.Sprintf("%d credit inquiries in trailing 6 months (above %d)",
						in.Bureau.InquiriesLast6Months, p.ExcessiveInquiries)
				}
				return false, ""
			},
		},
		{
			ID: "A-04", Variable: VariableCreditHistory, Flag: "ACTIVE_DELINQUENCY", Points: 10,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.Bureau != nil && in.Bureau.ActiveDelinquency {
					return true, "active delinquency on bureau record"
				}
				return false, ""
			},
		},
		{
			ID: "A-05", Variable: VariableCreditHistory, Flag: "RISING_DEBT", Points: 3,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.Bureau != nil && in.Bureau.DebtTrendIncreasing {
					return true, "outstanding debt trend increasing"
				}
				return false, ""
			},
		},

		// Variable B: Payment Capacity (25)
		{
			ID: "B-01", Variable: VariablePaymentCapacity, Flag: "CRITICAL_CASH_FLOW", Points: 20,
			Applies: func(in Input, p Policy) (bool, string) {
				ratio, ok := in.cashFlowRatio(p)
				if ok && ratio.LessThan(p.CashFlowCriticalPct) {
					return true, fmt.Sprintf("cash flow ratio %s%% (below %s%%)",
						ratio.Mul(decimal.NewFromInt(100)).StringFixed(1),
						p.CashFlowCriticalPct.Mul(decimal.NewFromInt(100)).StringFixed(0))
				}
				return false, ""
			},
		},
		{
			ID: "B-02", Variable: VariablePaymentCapacity, Flag: "TIGHT_CASH_FLOW", Points: 10,
			Applies: func(in Input, p Policy) (bool, string) {
				ratio, ok := in.cashFlowRatio(p)
				if ok && !ratio.LessThan(p.CashFlowCriticalPct) && ratio.LessThan(p.CashFlowTightPct) {
					return true, fmt.Sprintf("cash flow ratio %s%% (%s%%-%s%%)",
						ratio.Mul(decimal.NewFromInt(100)).StringFixed(1),
						p.CashFlowCriticalPct.Mul(decimal.NewFromInt(100)).StringFixed(0),
						p.CashFlowTightPct.Mul(decimal.NewFromInt(100)).StringFixed(0))
				}
				return false, ""
			},
		},
		{
			ID: "B-03", Variable: VariablePaymentCapacity, Flag: "LOW_INCOME", Points: 5,
			Applies: func(in Input, p Policy) (bool, string) {
				if !in.Profile.DeclaredSalary.IsPositive() {
					return false, ""
				}
				threshold := p.MinimumWage.Mul(decimal.NewFromInt(1).Add(p.MinimumWageBufferPct))
				if in.Profile.DeclaredSalary.LessThan(threshold) {
					return true, fmt.Sprintf("declared salary %s below minimum wage +10%% (%s)",
						in.Profile.DeclaredSalary, threshold.RoundToCent())
				}
				return false, ""
			},
		},
		{
			ID: "B-04", Variable: VariablePaymentCapacity, Flag: "HIGH_DEPENDENCY_RATIO", Points: 10,
			Applies: func(in Input, p Policy) (bool, string) {
				if !in.Profile.DeclaredSalary.IsPositive() {
					return false, ""
				}
				if in.Profile.Dependents > p.HighDependencyCount && in.Profile.DeclaredSalary.LessThan(p.HighDependencySalary) {
					return true, fmt.Sprintf("%d dependents with salary %s (below %s)",
						in.Profile.Dependents, in.Profile.DeclaredSalary, p.HighDependencySalary)
				}
				return false, ""
			},
		},

		// Variable C: Stability (15)
		{
			ID: "C-01", Variable: VariableStability, Flag: "PROBATION_PERIOD", Points: 10,
			Applies: func(in Input, p Policy) (bool, string) {
				months, ok := in.Profile.EmploymentTenureMonths(in.AsOf)
				if ok && months < p.ProbationMonths {
					return true, fmt.Sprintf("employment tenure %d months (below %d)", months, p.ProbationMonths)
				}
				return false, ""
			},
		},
		{
			ID: "C-02", Variable: VariableStability, Flag: "SHORT_TENURE", Points: 5,
			Applies: func(in Input, p Policy) (bool, string) {
				months, ok := in.Profile.EmploymentTenureMonths(in.AsOf)
				if ok && months >= p.ProbationMonths && months < p.ShortTenureMonths {
					return true, fmt.Sprintf("employment tenure %d months (%d-%d)", months, p.ProbationMonths, p.ShortTenureMonths)
				}
				return false, ""
			},
		},
		{
			ID: "C-03", Variable: VariableStability, Flag: "RECENT_MOVE", Points: 5,
			Applies: func(in Input, p Policy) (bool, string) {
				months, ok := in.Profile.ResidenceTenureMonths(in.AsOf)
				if ok && months < p.RecentMoveMonths {
					return true, fmt.Sprintf("residence tenure %d months (below %d)", months, p.RecentMoveMonths)
				}
				return false, ""
			},
		},
		{
			ID: "C-04", Variable: VariableStability, Flag: "ADDRESS_INCONSISTENCY", Points: 5,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.Profile.AddressMismatch() {
					return true, fmt.Sprintf("declared address %q inconsistent with billing address %q",
						in.Profile.DeclaredAddress, in.Profile.ObservedBillingAddress)
				}
				return false, ""
			},
		},

		// Variable D: Collateral (15)
		{
			ID: "D-01", Variable: VariableCollateral, Flag: "NO_ASSETS", Points: 3,
			Applies: func(in Input, p Policy) (bool, string) {
				if !in.Profile.HasCollateralAsset() {
					return true, "no collateral asset (vehicle/property) on record"
				}
				return false, ""
			},
		},
		{
			ID: "D-02", Variable: VariableCollateral, Flag: "INSUFFICIENT_GUARANTEE", Points: 5,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.Severance == nil {
					return false, ""
				}
				ratio := in.Severance.Ratio(in.Loan.Amount)
				if ratio.LessThan(p.SeveranceLoanRatio) {
					return true, fmt.Sprintf("severance %s covers %s%% of requested loan (below %s%%)",
						*in.Severance,
						ratio.Mul(decimal.NewFromInt(100)).StringFixed(1),
						p.SeveranceLoanRatio.Mul(decimal.NewFromInt(100)).StringFixed(0))
				}
				return false, ""
			},
		},

		// Variable E: Payment Morality (20)
		{
			ID: "E-01", Variable: VariablePaymentMorality, Flag: "FAST_WITHDRAWAL", Points: 5,
			Applies: func(in Input, p Policy) (bool, string) {
				f := in.Findings.FastWithdrawal
				if f.Detected {
					return true, fmt.Sprintf("fast withdrawal pattern: %d instance(s) of salary withdrawn within 24h", f.Count)
				}
				return false, ""
			},
		},
		{
			ID: "E-02", Variable: VariablePaymentMorality, Flag: "INFORMAL_LENDER_DETECTED", Points: 15,
			Applies: func(in Input, p Policy) (bool, string) {
				f := in.Findings.InformalLender
				if f.Detected {
					return true, fmt.Sprintf("informal lender pattern: %d recurring round transfers to the same counterparty", f.Count)
				}
				return false, ""
			},
		},
		{
			ID: "E-03", Variable: VariablePaymentMorality, Flag: "DATA_INCONSISTENCY", Points: 10,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.InterviewInconsistency {
					return true, "interview data inconsistent with submitted documents"
				}
				return false, ""
			},
		},
		{
			ID: "E-04", Variable: VariablePaymentMorality, Flag: "LOCATION_MISMATCH", Points: 10,
			Applies: func(in Input, p Policy) (bool, string) {
				if in.LocationMismatch {
					return true, "declared location inconsistent with observed spending locations"
				}
				return false, ""
			},
		},
	}
}
