package applicant

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/errors"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// Profile holds the declared applicant facts consumed by the engine. Fields
// that external collaborators may fail to supply are pointers; a nil optional
// fact means the rules that need it simply do not apply.
type Profile struct {
	CaseID   uuid.UUID `json:"case_id"`
	FullName string    `json:"full_name"`

	DeclaredSalary values.Money `json:"declared_salary"`
	Dependents     int          `json:"dependents"`

	EmploymentStartDate *time.Time `json:"employment_start_date,omitempty"`
	ResidenceStartDate  *time.Time `json:"residence_start_date,omitempty"`

	DeclaredAddress        string `json:"declared_address,omitempty"`
	ObservedBillingAddress string `json:"observed_billing_address,omitempty"`

	HasVehicle  bool `json:"has_vehicle"`
	HasProperty bool `json:"has_property"`

	// MonthlyExpenses, when absent, is estimated from net income by policy.
	MonthlyExpenses *values.Money `json:"monthly_expenses,omitempty"`
}

// HasCollateralAsset reports whether any collateral asset is on record
func (p Profile) HasCollateralAsset() bool {
	return p.HasVehicle || p.HasProperty
}

// EmploymentTenureMonths returns whole months employed as of the given date.
// The second return is false when no start date is on record.
func (p Profile) EmploymentTenureMonths(asOf time.Time) (int, bool) {
	return tenureMonths(p.EmploymentStartDate, asOf)
}

// ResidenceTenureMonths returns whole months at the current residence as of
// the given date. The second return is false when no start date is on record.
func (p Profile) ResidenceTenureMonths(asOf time.Time) (int, bool) {
	return tenureMonths(p.ResidenceStartDate, asOf)
}

// AddressMismatch reports a declared address inconsistent with the observed
// billing address. Only evaluates when both are on record.
func (p Profile) AddressMismatch() bool {
	if p.DeclaredAddress == "" || p.ObservedBillingAddress == "" {
		return false
	}
	return normalizeAddress(p.DeclaredAddress) != normalizeAddress(p.ObservedBillingAddress)
}

func tenureMonths(start *time.Time, asOf time.Time) (int, bool) {
	if start == nil || start.After(asOf) {
		return 0, false
	}
	months := (asOf.Year()-start.Year())*12 + int(asOf.Month()) - int(start.Month())
	if asOf.Day() < start.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months, true
}

func normalizeAddress(addr string) string {
	fields := []byte(addr)
	out := make([]byte, 0, len(fields))
	lastSpace := true
	for _, c := range fields {
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
			lastSpace = false
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			out = append(out, c)
			lastSpace = false
		default:
			if !lastSpace {
				out = append(out, ' ')
				lastSpace = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return string(out)
}

// BureauRecord is the externally supplied credit-bureau snapshot. The whole
// record is optional; a case with no bureau data scores no worse than its
// evidence warrants.
type BureauRecord struct {
	Score                int          `json:"score"`
	InquiriesLast6Months int          `json:"inquiries_last_6_months"`
	ActiveDelinquency    bool         `json:"active_delinquency"`
	DebtTrendIncreasing  bool         `json:"debt_trend_increasing"`
	MonthlyDebt          values.Money `json:"monthly_debt"`
}

// LoanRequest holds the requested loan parameters
type LoanRequest struct {
	Amount     values.Money `json:"amount"`
	TermMonths int          `json:"term_months"`
}

// Validate fails fast on malformed loan parameters
func (l LoanRequest) Validate() error {
	if l.TermMonths <= 0 {
		return errors.ErrInvalidLoanTerm.WithDetails(map[string]interface{}{
			"term_months": l.TermMonths,
		})
	}
	if !l.Amount.IsPositive() {
		return errors.NewValidationError("INVALID_LOAN_AMOUNT",
			"requested loan amount must be positive")
	}
	return nil
}

// MonthlyInstallment is the simple proposed payment: amount over term
func (l LoanRequest) MonthlyInstallment() decimal.Decimal {
	if l.TermMonths <= 0 {
		return decimal.Zero
	}
	return l.Amount.Amount().Div(decimal.NewFromInt(int64(l.TermMonths)))
}
