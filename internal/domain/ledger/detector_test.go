package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

var baseDate = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func dop(amount string) values.Money {
	return values.MustNewMoneyFromString(amount, values.DOP)
}

func TestDetector_FastWithdrawal(t *testing.T) {
	d := NewDetector(DefaultDetectorPolicy())

	t.Run("detects large withdrawal within window", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO NOMINA", "30000", DirectionCredit, CategorySalary),
			txn(baseDate.Add(6*time.Hour), "RETIRO ATM", "28000", DirectionDebit, CategoryOther),
		})

		f := d.detectFastWithdrawal(l)
		assert.True(t, f.Detected)
		assert.Equal(t, SeverityHigh, f.Severity)
		require.Len(t, f.Evidence, 1)
		assert.True(t, f.Evidence[0].Amount.Equal(dop("28000")))
	})

	t.Run("exactly 90 percent does not qualify", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO NOMINA", "30000", DirectionCredit, CategorySalary),
			txn(baseDate.Add(2*time.Hour), "RETIRO ATM", "27000", DirectionDebit, CategoryOther),
		})

		f := d.detectFastWithdrawal(l)
		assert.False(t, f.Detected)
	})

	t.Run("withdrawal outside 24h window is ignored", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO NOMINA", "30000", DirectionCredit, CategorySalary),
			txn(baseDate.Add(25*time.Hour), "RETIRO ATM", "29000", DirectionDebit, CategoryOther),
		})

		f := d.detectFastWithdrawal(l)
		assert.False(t, f.Detected)
	})

	t.Run("credits within the window do not qualify", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO NOMINA", "30000", DirectionCredit, CategorySalary),
			txn(baseDate.Add(time.Hour), "DEPOSITO", "29000", DirectionCredit, CategoryOther),
		})

		f := d.detectFastWithdrawal(l)
		assert.False(t, f.Detected)
	})

	t.Run("each qualifying pair contributes evidence", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO NOMINA", "30000", DirectionCredit, CategorySalary),
			txn(baseDate.Add(3*time.Hour), "RETIRO ATM", "28000", DirectionDebit, CategoryOther),
			txn(baseDate.AddDate(0, 1, 0), "PAGO NOMINA", "30000", DirectionCredit, CategorySalary),
			txn(baseDate.AddDate(0, 1, 0).Add(5*time.Hour), "RETIRO ATM", "29000", DirectionDebit, CategoryOther),
		})

		f := d.detectFastWithdrawal(l)
		assert.True(t, f.Detected)
		assert.Equal(t, 2, f.Count)
	})
}

func TestDetector_InformalLender(t *testing.T) {
	d := NewDetector(DefaultDetectorPolicy())

	t.Run("three round transfers to same counterparty", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 15), "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 1, 0), "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
		})

		f := d.detectInformalLender(l)
		assert.True(t, f.Detected)
		assert.Equal(t, SeverityCritical, f.Severity)
		assert.Equal(t, 3, f.Count)
	})

	t.Run("two transfers are below the threshold", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 15), "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
		})

		f := d.detectInformalLender(l)
		assert.False(t, f.Detected)
	})

	t.Run("non-round amounts are ignored", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO JUAN PRESTAMO", "2501", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 15), "PAGO JUAN PRESTAMO", "2501", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 1, 0), "PAGO JUAN PRESTAMO", "2501", DirectionDebit, CategoryTransfer),
		})

		f := d.detectInformalLender(l)
		assert.False(t, f.Detected)
	})

	t.Run("counterparty match tolerates case and spacing", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "pago juan prestamo", "2500", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 10), "PAGO  JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 20), "Pago Juan Prestamo", "2500", DirectionDebit, CategoryTransfer),
		})

		f := d.detectInformalLender(l)
		assert.True(t, f.Detected)
		assert.Equal(t, 3, f.Count)
	})

	t.Run("varying amounts to same counterparty still flag", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO JUAN PRESTAMO", "2000", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 10), "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 20), "PAGO JUAN PRESTAMO", "3000", DirectionDebit, CategoryTransfer),
		})

		f := d.detectInformalLender(l)
		assert.True(t, f.Detected)
	})
}

func TestDetector_NSFOverdraft(t *testing.T) {
	d := NewDetector(DefaultDetectorPolicy())

	t.Run("keyword match in any language variant", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "CARGO POR SOBREGIRO", "500", DirectionDebit, CategoryOther),
			txn(baseDate.AddDate(0, 0, 5), "NSF FEE", "300", DirectionDebit, CategoryOther),
			txn(baseDate.AddDate(0, 0, 9), "CHEQUE DEVUELTO", "250", DirectionDebit, CategoryOther),
		})

		f := d.detectNSFOverdraft(l)
		assert.True(t, f.Detected)
		assert.Equal(t, 3, f.Count)
	})

	t.Run("negative balance after debit counts without keyword", func(t *testing.T) {
		overdrawn := txn(baseDate, "COMPRA GRANDE", "5000", DirectionDebit, CategoryOther)
		overdrawn.Balance = dop("-120")

		f := d.detectNSFOverdraft(MustNewLedger([]Transaction{overdrawn}))
		assert.True(t, f.Detected)
		assert.Equal(t, 1, f.Count)
	})

	t.Run("quiet ledger yields nothing", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "SUPERMERCADO", "2000", DirectionDebit, CategoryOther),
		})

		f := d.detectNSFOverdraft(l)
		assert.False(t, f.Detected)
		assert.Equal(t, 0, f.Count)
	})
}

func TestDetector_SalaryInconsistency(t *testing.T) {
	d := NewDetector(DefaultDetectorPolicy())

	tests := []struct {
		name         string
		declared     string
		deposits     []string
		wantDetected bool
		wantVariance string
	}{
		{
			name:         "matching salary within tolerance",
			declared:     "45000",
			deposits:     []string{"45000", "45000", "44000"},
			wantDetected: false,
		},
		{
			name:         "observed far below declared",
			declared:     "60000",
			deposits:     []string{"30000", "30000"},
			wantDetected: true,
			wantVariance: "50",
		},
		{
			name:         "exactly at 20 percent tolerance",
			declared:     "50000",
			deposits:     []string{"40000"},
			wantDetected: false,
			wantVariance: "20",
		},
		{
			name:         "no deposits against declared salary",
			declared:     "45000",
			deposits:     nil,
			wantDetected: true,
			wantVariance: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var deposits []values.Money
			for _, amount := range tt.deposits {
				deposits = append(deposits, dop(amount))
			}

			f := d.detectSalaryInconsistency(dop(tt.declared), deposits)
			assert.Equal(t, tt.wantDetected, f.Detected)
			if tt.wantVariance != "" {
				assert.True(t, f.VariancePct.Equal(decimal.RequireFromString(tt.wantVariance)),
					"variance %s", f.VariancePct)
			}
		})
	}

	t.Run("zero declared salary is not evaluated", func(t *testing.T) {
		f := d.detectSalaryInconsistency(values.Zero(values.DOP), nil)
		assert.False(t, f.Detected)
	})
}

func TestDetector_HiddenAccounts(t *testing.T) {
	d := NewDetector(DefaultDetectorPolicy())

	t.Run("three transfers to the same account number", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "TRANSFERENCIA CTA 78901234", "5000", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 10), "TRANSFERENCIA CTA 78901234", "3000", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 20), "TRANSFERENCIA CTA 78901234", "4000", DirectionDebit, CategoryTransfer),
		})

		f := d.detectHiddenAccounts(l)
		assert.True(t, f.Detected)
		assert.Equal(t, 3, f.Count)
	})

	t.Run("transfers to different accounts do not flag", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "TRANSFERENCIA CTA 11112222", "5000", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 10), "TRANSFERENCIA CTA 33334444", "3000", DirectionDebit, CategoryTransfer),
			txn(baseDate.AddDate(0, 0, 20), "TRANSFERENCIA CTA 55556666", "4000", DirectionDebit, CategoryTransfer),
		})

		f := d.detectHiddenAccounts(l)
		assert.False(t, f.Detected)
	})

	t.Run("descriptions without transfer keywords are ignored", func(t *testing.T) {
		l := MustNewLedger([]Transaction{
			txn(baseDate, "PAGO FACTURA 78901234", "5000", DirectionDebit, CategoryOther),
			txn(baseDate.AddDate(0, 0, 10), "PAGO FACTURA 78901234", "3000", DirectionDebit, CategoryOther),
			txn(baseDate.AddDate(0, 0, 20), "PAGO FACTURA 78901234", "4000", DirectionDebit, CategoryOther),
		})

		f := d.detectHiddenAccounts(l)
		assert.False(t, f.Detected)
	})
}

func TestDetector_DetectAll_Deterministic(t *testing.T) {
	d := NewDetector(DefaultDetectorPolicy())

	l := MustNewLedger([]Transaction{
		txn(baseDate, "PAGO NOMINA", "30000", DirectionCredit, CategorySalary),
		txn(baseDate.Add(4*time.Hour), "RETIRO ATM", "28000", DirectionDebit, CategoryOther),
		txn(baseDate.AddDate(0, 0, 3), "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
		txn(baseDate.AddDate(0, 0, 13), "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
		txn(baseDate.AddDate(0, 0, 23), "PAGO JUAN PRESTAMO", "2500", DirectionDebit, CategoryTransfer),
	})
	declared := dop("30000")
	deposits := []values.Money{dop("30000")}

	first := d.DetectAll(l, declared, deposits)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.DetectAll(l, declared, deposits))
	}

	assert.True(t, first.FastWithdrawal.Detected)
	assert.True(t, first.InformalLender.Detected)
	assert.ElementsMatch(t, []string{"FAST_WITHDRAWAL", "INFORMAL_LENDER"}, first.Flags())
}
