package ledger

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// DetectorPolicy carries the calibration parameters for pattern detection.
// The keyword lists and the round-amount unit are policy, not constants;
// they are expected to be tuned against real statement data.
type DetectorPolicy struct {
	// FastWithdrawalWindow is how far forward (in ledger time) to scan
	// after a salary deposit for a matching withdrawal.
	FastWithdrawalWindow time.Duration

	// FastWithdrawalRatio is the fraction of the deposit a single debit
	// must exceed to qualify.
	FastWithdrawalRatio decimal.Decimal

	// RoundAmountUnit: a transfer is "round" when its amount is an exact
	// multiple of this unit.
	RoundAmountUnit decimal.Decimal

	// InformalLenderMinTransfers is the minimum number of round transfers
	// to the same counterparty that flags the pattern.
	InformalLenderMinTransfers int

	// NSFKeywords are matched case-insensitively against descriptions.
	NSFKeywords []string

	// SelfTransferKeywords mark a description as an own-account transfer.
	SelfTransferKeywords []string

	// SelfTransferMinCount is the minimum number of transfers to the same
	// account number that flags hidden accounts.
	SelfTransferMinCount int

	// SalaryVarianceTolerancePct is the allowed declared-vs-observed
	// salary deviation, in percent.
	SalaryVarianceTolerancePct decimal.Decimal
}

// DefaultDetectorPolicy returns the calibration used in production
func DefaultDetectorPolicy() DetectorPolicy {
	return DetectorPolicy{
		FastWithdrawalWindow:       24 * time.Hour,
		FastWithdrawalRatio:        decimal.NewFromFloat(0.90),
		RoundAmountUnit:            decimal.NewFromInt(500),
		InformalLenderMinTransfers: 3,
		NSFKeywords: []string{
			"nsf",
			"insufficient",
			"overdraft",
			"sobregiro",
			"fondos insuficientes",
			"rechazado",
			"devuelto",
		},
		SelfTransferKeywords:       []string{"transferencia", "transfer", "traspaso"},
		SelfTransferMinCount:       3,
		SalaryVarianceTolerancePct: decimal.NewFromInt(20),
	}
}

// counterpartyPrefixLen bounds the normalized-description grouping key so
// trailing reference numbers don't split a recurring counterparty.
const counterpartyPrefixLen = 20

var accountNumberRe = regexp.MustCompile(`\d{4,}`)

// Detector runs the five transaction-risk pattern detectors over a ledger.
// It holds no mutable state; a single Detector is safe for concurrent use
// across cases.
type Detector struct {
	policy DetectorPolicy
}

// NewDetector creates a detector with the given policy
func NewDetector(policy DetectorPolicy) *Detector {
	return &Detector{policy: policy}
}

// DetectAll runs every detector over the same ledger. The detectors are
// independent and read-only; order here only fixes output ordering.
func (d *Detector) DetectAll(l Ledger, declaredSalary values.Money, salaryDeposits []values.Money) Findings {
	return Findings{
		FastWithdrawal:      d.detectFastWithdrawal(l),
		InformalLender:      d.detectInformalLender(l),
		NSFOverdraft:        d.detectNSFOverdraft(l),
		SalaryInconsistency: d.detectSalaryInconsistency(declaredSalary, salaryDeposits),
		HiddenAccounts:      d.detectHiddenAccounts(l),
	}
}

// detectFastWithdrawal flags salary deposits followed within the window by a
// single debit exceeding the ratio of the deposit amount. Each qualifying
// deposit/withdrawal pair contributes one evidence entry.
func (d *Detector) detectFastWithdrawal(l Ledger) Finding {
	finding := Finding{
		Pattern:  PatternFastWithdrawal,
		Severity: SeverityHigh,
	}

	txns := l.transactions
	for i, deposit := range txns {
		if !deposit.IsSalaryDeposit() {
			continue
		}

		threshold := deposit.Amount.Amount().Mul(d.policy.FastWithdrawalRatio)
		deadline := deposit.Date.Add(d.policy.FastWithdrawalWindow)

		for j := i + 1; j < len(txns); j++ {
			txn := txns[j]
			if txn.Date.After(deadline) {
				break
			}
			if txn.Direction != DirectionDebit {
				continue
			}
			if txn.Amount.Amount().Abs().GreaterThan(threshold) {
				finding.Evidence = append(finding.Evidence, Evidence{
					Date:   txn.Date,
					Amount: txn.Amount,
					Description: fmt.Sprintf("withdrawal of %s follows salary deposit of %s on %s",
						txn.Amount, deposit.Amount, deposit.Date.Format("2006-01-02")),
				})
			}
		}
	}

	sortEvidence(finding.Evidence)
	finding.Detected = len(finding.Evidence) > 0
	finding.Count = len(finding.Evidence)
	return finding
}

// detectInformalLender flags recurring round-amount transfers to the same
// normalized counterparty. Precision over recall: a false positive is
// preferred over a missed predatory-lending signal.
func (d *Detector) detectInformalLender(l Ledger) Finding {
	finding := Finding{
		Pattern:  PatternInformalLender,
		Severity: SeverityCritical,
	}

	groups := make(map[string]int)
	for _, txn := range l.transactions {
		if txn.Direction != DirectionDebit {
			continue
		}
		if !d.isRoundAmount(txn.Amount.Amount()) {
			continue
		}
		groups[counterpartyKey(txn.Description)]++
	}

	flagged := make(map[string]bool)
	for key, count := range groups {
		if count >= d.policy.InformalLenderMinTransfers {
			flagged[key] = true
		}
	}

	if len(flagged) == 0 {
		return finding
	}

	// Second pass in ledger order keeps evidence ordering deterministic.
	for _, txn := range l.transactions {
		if txn.Direction != DirectionDebit || !d.isRoundAmount(txn.Amount.Amount()) {
			continue
		}
		if flagged[counterpartyKey(txn.Description)] {
			finding.Evidence = append(finding.Evidence, Evidence{
				Date:        txn.Date,
				Amount:      txn.Amount,
				Description: txn.Description,
			})
		}
	}

	finding.Detected = true
	finding.Count = len(finding.Evidence)
	return finding
}

// detectNSFOverdraft counts insufficient-funds events: a keyword match on the
// description, or a balance that goes negative immediately after a debit.
// The count is raw, with no evidence cap.
func (d *Detector) detectNSFOverdraft(l Ledger) Finding {
	finding := Finding{
		Pattern:  PatternNSFOverdraft,
		Severity: SeverityMedium,
	}

	for _, txn := range l.transactions {
		if d.matchesNSF(txn) {
			finding.Evidence = append(finding.Evidence, Evidence{
				Date:        txn.Date,
				Amount:      txn.Amount,
				Description: txn.Description,
			})
		}
	}

	finding.Count = len(finding.Evidence)
	finding.Detected = finding.Count > 0
	return finding
}

func (d *Detector) matchesNSF(txn Transaction) bool {
	desc := strings.ToLower(txn.Description)
	for _, keyword := range d.policy.NSFKeywords {
		if strings.Contains(desc, keyword) {
			return true
		}
	}
	return txn.Direction == DirectionDebit && txn.Balance.IsNegative()
}

// detectSalaryInconsistency compares the mean of observed salary deposits
// against the declared salary. A declared salary of zero cannot be compared
// and yields no finding; zero observed deposits against a declared salary is
// a full-variance inconsistency.
func (d *Detector) detectSalaryInconsistency(declared values.Money, deposits []values.Money) Finding {
	finding := Finding{
		Pattern:  PatternSalaryInconsistency,
		Severity: SeverityHigh,
	}

	if declared.IsZero() || declared.IsNegative() {
		return finding
	}

	if len(deposits) == 0 {
		finding.Detected = true
		finding.VariancePct = decimal.NewFromInt(100)
		return finding
	}

	sum := decimal.Zero
	for _, dep := range deposits {
		sum = sum.Add(dep.Amount())
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(deposits))))

	variance := declared.Amount().Sub(mean).Abs().
		Div(declared.Amount()).
		Mul(decimal.NewFromInt(100))

	finding.VariancePct = variance
	finding.Detected = variance.GreaterThan(d.policy.SalaryVarianceTolerancePct)
	return finding
}

// detectHiddenAccounts flags repeated self-directed transfers to the same
// account number, which suggests income split across undisclosed accounts.
func (d *Detector) detectHiddenAccounts(l Ledger) Finding {
	finding := Finding{
		Pattern:  PatternHiddenAccounts,
		Severity: SeverityMedium,
	}

	counts := make(map[string]int)
	for _, txn := range l.transactions {
		for _, account := range d.selfTransferAccounts(txn) {
			counts[account]++
		}
	}

	flagged := make(map[string]bool)
	for account, count := range counts {
		if count >= d.policy.SelfTransferMinCount {
			flagged[account] = true
		}
	}

	if len(flagged) == 0 {
		return finding
	}

	for _, txn := range l.transactions {
		for _, account := range d.selfTransferAccounts(txn) {
			if flagged[account] {
				finding.Evidence = append(finding.Evidence, Evidence{
					Date:        txn.Date,
					Amount:      txn.Amount,
					Description: txn.Description,
				})
				break
			}
		}
	}

	finding.Detected = true
	finding.Count = len(finding.Evidence)
	return finding
}

// selfTransferAccounts extracts candidate account numbers from a transaction
// whose description suggests an own-account transfer.
func (d *Detector) selfTransferAccounts(txn Transaction) []string {
	desc := strings.ToLower(txn.Description)
	transfer := false
	for _, keyword := range d.policy.SelfTransferKeywords {
		if strings.Contains(desc, keyword) {
			transfer = true
			break
		}
	}
	if !transfer {
		return nil
	}
	return accountNumberRe.FindAllString(txn.Description, -1)
}

func (d *Detector) isRoundAmount(amount decimal.Decimal) bool {
	if !amount.IsPositive() || d.policy.RoundAmountUnit.IsZero() {
		return false
	}
	return amount.Mod(d.policy.RoundAmountUnit).IsZero()
}

// counterpartyKey normalizes a description for counterparty grouping:
// lowercase, collapsed whitespace, truncated to a fixed prefix.
func counterpartyKey(description string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(description)), " ")
	if len(normalized) > counterpartyPrefixLen {
		normalized = normalized[:counterpartyPrefixLen]
	}
	return normalized
}

// sortEvidence orders entries by date, keeping insertion order on ties
func sortEvidence(evidence []Evidence) {
	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].Date.Before(evidence[j].Date)
	})
}
