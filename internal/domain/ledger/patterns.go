package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// PatternID identifies one of the fixed transaction-risk patterns.
type PatternID string

const (
	PatternFastWithdrawal      PatternID = "FAST_WITHDRAWAL"
	PatternInformalLender      PatternID = "INFORMAL_LENDER"
	PatternNSFOverdraft        PatternID = "NSF_OVERDRAFT"
	PatternSalaryInconsistency PatternID = "SALARY_INCONSISTENCY"
	PatternHiddenAccounts      PatternID = "MULTIPLE_HIDDEN_ACCOUNTS"
)

func (p PatternID) String() string {
	return string(p)
}

// Severity ranks how strongly a detected pattern weighs on the applicant.
type Severity int

const (
	SeverityMedium Severity = iota
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "MEDIUM":
		*s = SeverityMedium
	case "HIGH":
		*s = SeverityHigh
	case "CRITICAL":
		*s = SeverityCritical
	default:
		return fmt.Errorf("invalid severity: %q", text)
	}
	return nil
}

// Evidence is a single supporting citation for a finding. Evidence lists are
// append-only and emitted sorted by date, ledger order breaking ties, so
// output stays reproducible for audit.
type Evidence struct {
	Date        time.Time    `json:"date"`
	Amount      values.Money `json:"amount"`
	Description string       `json:"description"`
}

// Finding is the result of running one pattern detector over a ledger.
// Multiple instances of a pattern collapse into one finding with multiple
// evidence entries.
type Finding struct {
	Pattern  PatternID  `json:"pattern"`
	Severity Severity   `json:"severity"`
	Detected bool       `json:"detected"`
	Evidence []Evidence `json:"evidence,omitempty"`

	// Count is the raw occurrence count where the pattern is a tally
	// (NSF/overdraft events, self-transfers).
	Count int `json:"count,omitempty"`

	// VariancePct carries the declared-vs-observed salary deviation for
	// the salary-inconsistency pattern, as a percentage.
	VariancePct decimal.Decimal `json:"variance_pct,omitempty"`
}

// Findings holds the outcome of all five detectors for one case. Fields are
// fixed rather than a map so iteration order is deterministic.
type Findings struct {
	FastWithdrawal      Finding `json:"fast_withdrawal"`
	InformalLender      Finding `json:"informal_lender"`
	NSFOverdraft        Finding `json:"nsf_overdraft"`
	SalaryInconsistency Finding `json:"salary_inconsistency"`
	HiddenAccounts      Finding `json:"hidden_accounts"`
}

// All returns the findings in fixed evaluation order
func (f Findings) All() []Finding {
	return []Finding{
		f.FastWithdrawal,
		f.InformalLender,
		f.NSFOverdraft,
		f.SalaryInconsistency,
		f.HiddenAccounts,
	}
}

// ByID returns the finding for the given pattern
func (f Findings) ByID(id PatternID) (Finding, bool) {
	for _, finding := range f.All() {
		if finding.Pattern == id {
			return finding, true
		}
	}
	return Finding{}, false
}

// Detected returns the subset of findings whose pattern fired, in fixed order
func (f Findings) Detected() []Finding {
	var out []Finding
	for _, finding := range f.All() {
		if finding.Detected {
			out = append(out, finding)
		}
	}
	return out
}

// Flags returns the pattern identifiers of every detected finding
func (f Findings) Flags() []string {
	var out []string
	for _, finding := range f.Detected() {
		out = append(out, finding.Pattern.String())
	}
	return out
}
