package fixtures

import (
	"testing"
	"time"

	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// LedgerBuilder builds test transaction ledgers
type LedgerBuilder struct {
	t            *testing.T
	transactions []ledger.Transaction
	balance      values.Money
}

// NewLedgerBuilder creates a new LedgerBuilder with an opening balance
func NewLedgerBuilder(t *testing.T) *LedgerBuilder {
	t.Helper()
	return &LedgerBuilder{
		t:       t,
		balance: values.MustNewMoneyFromString("10000", values.DOP),
	}
}

// WithOpeningBalance sets the running balance the next entries start from
func (b *LedgerBuilder) WithOpeningBalance(amount string) *LedgerBuilder {
	b.balance = values.MustNewMoneyFromString(amount, values.DOP)
	return b
}

// WithSalaryDeposit appends a salary-classified credit
func (b *LedgerBuilder) WithSalaryDeposit(date time.Time, amount string) *LedgerBuilder {
	return b.append(date, "PAGO NOMINA", amount, ledger.DirectionCredit, ledger.CategorySalary)
}

// WithCredit appends a generic credit
func (b *LedgerBuilder) WithCredit(date time.Time, description, amount string) *LedgerBuilder {
	return b.append(date, description, amount, ledger.DirectionCredit, ledger.CategoryOther)
}

// WithDebit appends a generic debit
func (b *LedgerBuilder) WithDebit(date time.Time, description, amount string) *LedgerBuilder {
	return b.append(date, description, amount, ledger.DirectionDebit, ledger.CategoryOther)
}

// WithTransfer appends a transfer-classified debit
func (b *LedgerBuilder) WithTransfer(date time.Time, description, amount string) *LedgerBuilder {
	return b.append(date, description, amount, ledger.DirectionDebit, ledger.CategoryTransfer)
}

// WithTransaction appends a fully specified entry
func (b *LedgerBuilder) WithTransaction(txn ledger.Transaction) *LedgerBuilder {
	b.transactions = append(b.transactions, txn)
	return b
}

func (b *LedgerBuilder) append(date time.Time, description, amount string, dir ledger.Direction, cat ledger.Category) *LedgerBuilder {
	b.t.Helper()
	m := values.MustNewMoneyFromString(amount, values.DOP)

	if dir == ledger.DirectionCredit {
		next, err := b.balance.Add(m)
		if err == nil {
			b.balance = next
		}
	} else {
		next, err := b.balance.Sub(m)
		if err == nil {
			b.balance = next
		}
	}

	b.transactions = append(b.transactions, ledger.Transaction{
		Date:        date,
		Description: description,
		Amount:      m,
		Direction:   dir,
		Balance:     b.balance,
		Category:    cat,
	})
	return b
}

// Build constructs the ledger, failing the test on invalid input
func (b *LedgerBuilder) Build() ledger.Ledger {
	b.t.Helper()
	l, err := ledger.NewLedger(b.transactions)
	if err != nil {
		b.t.Fatalf("building ledger: %v", err)
	}
	return l
}
