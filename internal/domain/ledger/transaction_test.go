package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/credit-risk-engine/internal/domain/errors"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

func txn(date time.Time, desc, amount string, dir Direction, cat Category) Transaction {
	return Transaction{
		Date:        date,
		Description: desc,
		Amount:      values.MustNewMoneyFromString(amount, values.DOP),
		Direction:   dir,
		Balance:     values.MustNewMoneyFromString("1000", values.DOP),
		Category:    cat,
	}
}

func TestNewLedger(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	t.Run("accepts sorted transactions", func(t *testing.T) {
		l, err := NewLedger([]Transaction{
			txn(day1, "PAGO NOMINA", "45000", DirectionCredit, CategorySalary),
			txn(day2, "SUPERMERCADO", "2000", DirectionDebit, CategoryOther),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, l.Len())
	})

	t.Run("accepts same-date ties in statement order", func(t *testing.T) {
		l, err := NewLedger([]Transaction{
			txn(day1, "FIRST", "100", DirectionDebit, CategoryOther),
			txn(day1, "SECOND", "200", DirectionDebit, CategoryOther),
		})
		require.NoError(t, err)
		got := l.Transactions()
		assert.Equal(t, "FIRST", got[0].Description)
		assert.Equal(t, "SECOND", got[1].Description)
	})

	t.Run("rejects out-of-order dates", func(t *testing.T) {
		_, err := NewLedger([]Transaction{
			txn(day2, "LATER", "100", DirectionDebit, CategoryOther),
			txn(day1, "EARLIER", "100", DirectionDebit, CategoryOther),
		})
		require.Error(t, err)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "LEDGER_OUT_OF_ORDER", appErr.Code)
	})

	t.Run("out-of-order details belong to their own ledger", func(t *testing.T) {
		day3 := day1.AddDate(0, 0, 2)

		_, errA := NewLedger([]Transaction{
			txn(day2, "LATER", "100", DirectionDebit, CategoryOther),
			txn(day1, "EARLIER", "100", DirectionDebit, CategoryOther),
		})
		_, errB := NewLedger([]Transaction{
			txn(day1, "FIRST", "100", DirectionDebit, CategoryOther),
			txn(day3, "SECOND", "100", DirectionDebit, CategoryOther),
			txn(day2, "THIRD", "100", DirectionDebit, CategoryOther),
		})

		appA, ok := errors.AsAppError(errA)
		require.True(t, ok)
		appB, ok := errors.AsAppError(errB)
		require.True(t, ok)

		assert.Equal(t, 1, appA.Details["position"])
		assert.Equal(t, day1, appA.Details["date"])
		assert.Equal(t, 2, appB.Details["position"])
		assert.Equal(t, day2, appB.Details["date"])
	})

	t.Run("rejects invalid direction", func(t *testing.T) {
		bad := txn(day1, "X", "100", Direction("SIDEWAYS"), CategoryOther)
		_, err := NewLedger([]Transaction{bad})
		require.Error(t, err)
	})

	t.Run("rejects negative amount magnitude", func(t *testing.T) {
		bad := txn(day1, "X", "100", DirectionDebit, CategoryOther)
		bad.Amount = bad.Amount.Neg()
		_, err := NewLedger([]Transaction{bad})
		require.Error(t, err)
	})

	t.Run("rejects zero date", func(t *testing.T) {
		bad := txn(day1, "X", "100", DirectionDebit, CategoryOther)
		bad.Date = time.Time{}
		_, err := NewLedger([]Transaction{bad})
		require.Error(t, err)
	})

	t.Run("empty ledger is valid", func(t *testing.T) {
		l, err := NewLedger(nil)
		require.NoError(t, err)
		assert.True(t, l.IsEmpty())
	})
}

func TestLedger_DefensiveCopy(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	input := []Transaction{txn(day, "ORIGINAL", "100", DirectionDebit, CategoryOther)}

	l := MustNewLedger(input)
	input[0].Description = "MUTATED"
	assert.Equal(t, "ORIGINAL", l.Transactions()[0].Description)

	out := l.Transactions()
	out[0].Description = "MUTATED AGAIN"
	assert.Equal(t, "ORIGINAL", l.Transactions()[0].Description)
}

func TestTransaction_SignedAmount(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	credit := txn(day, "IN", "500", DirectionCredit, CategoryOther)
	debit := txn(day, "OUT", "500", DirectionDebit, CategoryOther)

	assert.True(t, credit.SignedAmount().IsPositive())
	assert.True(t, debit.SignedAmount().IsNegative())
}

func TestLedger_SalaryDeposits(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	l := MustNewLedger([]Transaction{
		txn(day, "PAGO NOMINA", "45000", DirectionCredit, CategorySalary),
		txn(day.AddDate(0, 0, 1), "REGALO", "1000", DirectionCredit, CategoryOther),
		// salary-categorized debit must not count as a deposit
		txn(day.AddDate(0, 0, 2), "AJUSTE NOMINA", "500", DirectionDebit, CategorySalary),
		txn(day.AddDate(0, 1, 0), "PAGO NOMINA", "45000", DirectionCredit, CategorySalary),
	})

	deposits := l.SalaryDeposits()
	require.Len(t, deposits, 2)
	for _, d := range deposits {
		assert.True(t, d.IsSalaryDeposit())
	}
}

func TestLedger_JSONRoundTrip(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	l := MustNewLedger([]Transaction{
		txn(day, "PAGO NOMINA", "45000", DirectionCredit, CategorySalary),
		txn(day.AddDate(0, 0, 3), "RETIRO ATM", "5000", DirectionDebit, CategoryOther),
	})

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var decoded Ledger
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, l.Transactions(), decoded.Transactions())
}

func TestLedger_UnmarshalRevalidates(t *testing.T) {
	day2 := `"2024-03-02T00:00:00Z"`
	day1 := `"2024-03-01T00:00:00Z"`
	amount := `{"amount":"100","currency":"DOP"}`

	raw := `[
		{"date":` + day2 + `,"description":"LATER","amount":` + amount + `,"direction":"DEBIT","balance":` + amount + `,"category":"OTHER"},
		{"date":` + day1 + `,"description":"EARLIER","amount":` + amount + `,"direction":"DEBIT","balance":` + amount + `,"category":"OTHER"}
	]`

	var decoded Ledger
	err := json.Unmarshal([]byte(raw), &decoded)
	require.Error(t, err)
}
