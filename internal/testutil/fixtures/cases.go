package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/credit-risk-engine/internal/domain/applicant"
	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
	"github.com/davidleathers/credit-risk-engine/internal/service/evaluation"
	"github.com/davidleathers/credit-risk-engine/internal/service/underwriting"
)

// AsOf is the fixed evaluation date used across fixtures
var AsOf = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

// CaseBuilder builds full evaluation requests. The defaults describe a clean
// applicant: stable salaried job, good bureau standing, quiet ledger.
type CaseBuilder struct {
	t   *testing.T
	req evaluation.Request
}

// NewCaseBuilder creates a CaseBuilder with clean-applicant defaults
func NewCaseBuilder(t *testing.T) *CaseBuilder {
	t.Helper()

	employed := AsOf.AddDate(-4, 0, 0)
	resident := AsOf.AddDate(-3, 0, 0)

	return &CaseBuilder{
		t: t,
		req: evaluation.Request{
			CaseID: uuid.New(),
			AsOf:   AsOf,
			Profile: applicant.Profile{
				CaseID:                 uuid.New(),
				FullName:               "Maria Perez",
				DeclaredSalary:         values.MustNewMoneyFromString("45000", values.DOP),
				Dependents:             1,
				EmploymentStartDate:    &employed,
				ResidenceStartDate:     &resident,
				DeclaredAddress:        "Calle Duarte 12, Santiago",
				ObservedBillingAddress: "Calle Duarte 12, Santiago",
				HasVehicle:             true,
			},
			Loan: applicant.LoanRequest{
				Amount:     values.MustNewMoneyFromString("30000", values.DOP),
				TermMonths: 12,
			},
			Bureau: &applicant.BureauRecord{
				Score:                720,
				InquiriesLast6Months: 1,
				MonthlyDebt:          values.MustNewMoneyFromString("2000", values.DOP),
			},
			Ledger: cleanLedger(t),
			Signals: underwriting.DataQualitySignals{
				DocumentsRequired:       3,
				DocumentsParsed:         3,
				ExternalValidationScore: 0.9,
			},
		},
	}
}

func cleanLedger(t *testing.T) ledger.Ledger {
	t.Helper()
	b := NewLedgerBuilder(t).WithOpeningBalance("20000")
	for m := 5; m >= 1; m-- {
		payday := AsOf.AddDate(0, -m, 0)
		b.WithSalaryDeposit(payday, "45000")
		b.WithDebit(payday.AddDate(0, 0, 5), "SUPERMERCADO", "8137.45")
		b.WithDebit(payday.AddDate(0, 0, 12), "PAGO ALQUILER", "11860.25")
	}
	return b.Build()
}

// WithProfile replaces the applicant profile
func (b *CaseBuilder) WithProfile(p applicant.Profile) *CaseBuilder {
	b.req.Profile = p
	return b
}

// WithDeclaredSalary sets the declared monthly salary
func (b *CaseBuilder) WithDeclaredSalary(amount string) *CaseBuilder {
	b.req.Profile.DeclaredSalary = values.MustNewMoneyFromString(amount, values.DOP)
	return b
}

// WithLoan sets the requested amount and term
func (b *CaseBuilder) WithLoan(amount string, termMonths int) *CaseBuilder {
	b.req.Loan = applicant.LoanRequest{
		Amount:     values.MustNewMoneyFromString(amount, values.DOP),
		TermMonths: termMonths,
	}
	return b
}

// WithBureau replaces the bureau record; nil means no bureau data
func (b *CaseBuilder) WithBureau(rec *applicant.BureauRecord) *CaseBuilder {
	b.req.Bureau = rec
	return b
}

// WithBureauScore sets just the bureau score
func (b *CaseBuilder) WithBureauScore(score int) *CaseBuilder {
	b.t.Helper()
	if b.req.Bureau == nil {
		b.t.Fatal("bureau record is nil")
	}
	b.req.Bureau.Score = score
	return b
}

// WithLedger replaces the transaction ledger
func (b *CaseBuilder) WithLedger(l ledger.Ledger) *CaseBuilder {
	b.req.Ledger = l
	return b
}

// WithEmploymentStart sets the employment start date; nil clears it
func (b *CaseBuilder) WithEmploymentStart(start *time.Time) *CaseBuilder {
	b.req.Profile.EmploymentStartDate = start
	return b
}

// WithSeverance sets the externally supplied labor-benefit amount
func (b *CaseBuilder) WithSeverance(amount string) *CaseBuilder {
	m := values.MustNewMoneyFromString(amount, values.DOP)
	b.req.Severance = &m
	return b
}

// WithSignals replaces the data-quality signals
func (b *CaseBuilder) WithSignals(sig underwriting.DataQualitySignals) *CaseBuilder {
	b.req.Signals = sig
	return b
}

// WithInterviewInconsistency marks contradictory interview answers
func (b *CaseBuilder) WithInterviewInconsistency() *CaseBuilder {
	b.req.InterviewInconsistency = true
	return b
}

// WithLocationMismatch marks a device-location mismatch
func (b *CaseBuilder) WithLocationMismatch() *CaseBuilder {
	b.req.LocationMismatch = true
	return b
}

// Build returns the assembled request
func (b *CaseBuilder) Build() evaluation.Request {
	return b.req
}
