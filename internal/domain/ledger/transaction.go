package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/errors"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// Direction indicates whether a transaction moved money into or out of the
// account.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	switch d {
	case DirectionCredit, DirectionDebit:
		return true
	default:
		return false
	}
}

// Category is the normalized classification assigned by the statement parser.
type Category string

const (
	CategorySalary   Category = "SALARY"
	CategoryTransfer Category = "TRANSFER"
	CategoryPayment  Category = "PAYMENT"
	CategoryOther    Category = "OTHER"
)

func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is valid
func (c Category) IsValid() bool {
	switch c {
	case CategorySalary, CategoryTransfer, CategoryPayment, CategoryOther:
		return true
	default:
		return false
	}
}

// Transaction is a single normalized bank-statement entry. Amounts are stored
// as positive magnitudes; Direction carries the sign. Immutable once the
// ledger is constructed.
type Transaction struct {
	Date        time.Time    `json:"date"`
	Description string       `json:"description"`
	Amount      values.Money `json:"amount"`
	Direction   Direction    `json:"direction"`
	Balance     values.Money `json:"balance"`
	Category    Category     `json:"category"`
}

// SignedAmount returns the amount with the direction applied: credits are
// positive, debits negative.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Amount().Neg()
	}
	return t.Amount.Amount()
}

// IsSalaryDeposit reports whether the transaction is a salary-classified
// credit.
func (t Transaction) IsSalaryDeposit() bool {
	return t.Direction == DirectionCredit && t.Category == CategorySalary
}

func (t Transaction) validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date is required")
	}
	if !t.Direction.IsValid() {
		return fmt.Errorf("invalid direction: %q", t.Direction)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("invalid category: %q", t.Category)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount must be a non-negative magnitude, got %s", t.Amount)
	}
	return nil
}

// Ledger is an immutable, date-ascending sequence of transactions. Ties are
// kept in original statement order, which NewLedger preserves.
type Ledger struct {
	transactions []Transaction
}

// NewLedger validates and wraps a transaction slice. The input must already
// be sorted by date ascending; an out-of-order ledger is rejected rather than
// silently re-sorted, since original order is the documented tie-break.
func NewLedger(transactions []Transaction) (Ledger, error) {
	for i, txn := range transactions {
		if err := txn.validate(); err != nil {
			return Ledger{}, errors.NewValidationError("INVALID_TRANSACTION",
				fmt.Sprintf("transaction %d: %v", i, err))
		}
		if i > 0 && txn.Date.Before(transactions[i-1].Date) {
			return Ledger{}, errors.ErrLedgerOutOfOrder.WithDetails(map[string]interface{}{
				"position": i,
				"date":     txn.Date,
				"previous": transactions[i-1].Date,
			})
		}
	}

	owned := make([]Transaction, len(transactions))
	copy(owned, transactions)

	return Ledger{transactions: owned}, nil
}

// MustNewLedger wraps NewLedger and panics on error (for fixtures/tests)
func MustNewLedger(transactions []Transaction) Ledger {
	l, err := NewLedger(transactions)
	if err != nil {
		panic(err)
	}
	return l
}

// Transactions returns a copy of the ledger entries; the caller cannot
// mutate the ledger through it
func (l Ledger) Transactions() []Transaction {
	out := make([]Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Len returns the number of transactions
func (l Ledger) Len() int {
	return len(l.transactions)
}

// IsEmpty reports whether the ledger holds no transactions
func (l Ledger) IsEmpty() bool {
	return len(l.transactions) == 0
}

// SalaryDeposits returns the salary-classified credits in ledger order
func (l Ledger) SalaryDeposits() []Transaction {
	var out []Transaction
	for _, txn := range l.transactions {
		if txn.IsSalaryDeposit() {
			out = append(out, txn)
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (l Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.transactions)
}

// UnmarshalJSON implements json.Unmarshaler, revalidating the ledger so a
// deserialized case cannot bypass ordering checks.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var transactions []Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return err
	}
	ledger, err := NewLedger(transactions)
	if err != nil {
		return err
	}
	*l = ledger
	return nil
}
