package labor

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/credit-risk-engine/internal/domain/errors"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
)

// dailySalaryDivisor converts a monthly salary to the average daily salary
// used by the Dominican Republic Labor Code.
var dailySalaryDivisor = decimal.RequireFromString("23.83")

// Entitlement is the labor-benefits amount an applicant would receive on
// termination. Only notice (preaviso) and severance (cesantia) count as
// collateral; the proportional Christmas salary is excluded.
type Entitlement struct {
	NoticeDays      int          `json:"notice_days"`
	NoticeAmount    values.Money `json:"notice_amount"`
	SeveranceDays   int          `json:"severance_days"`
	SeveranceAmount values.Money `json:"severance_amount"`
	Total           values.Money `json:"total"`

	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// Calculator computes labor-benefit entitlements. Stateless and safe for
// concurrent use.
type Calculator struct{}

// NewCalculator creates a labor-benefits calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Entitlement computes notice plus severance for the given employment span
// and monthly salary. Amounts are rounded to cents half away from zero at
// the end, never in intermediate steps.
func (c *Calculator) Entitlement(start, end time.Time, monthlySalary values.Money) (Entitlement, error) {
	if end.Before(start) {
		return Entitlement{}, errors.NewValidationError("INVALID_EMPLOYMENT_SPAN",
			fmt.Sprintf("employment end %s precedes start %s",
				end.Format("2006-01-02"), start.Format("2006-01-02")))
	}
	if !monthlySalary.IsPositive() {
		return Entitlement{}, errors.NewValidationError("INVALID_SALARY",
			"monthly salary must be positive")
	}

	years, months, days := inclusiveSpan(start, end)
	dailySalary := monthlySalary.Amount().Div(dailySalaryDivisor)

	noticeDays := noticeDaysFor(years, months)
	severanceDays := severanceDaysFor(years, months)

	notice := values.MustNewMoney(
		dailySalary.Mul(decimal.NewFromInt(int64(noticeDays))), monthlySalary.Currency()).RoundToCent()
	severance := values.MustNewMoney(
		dailySalary.Mul(decimal.NewFromInt(int64(severanceDays))), monthlySalary.Currency()).RoundToCent()

	total, err := notice.Add(severance)
	if err != nil {
		return Entitlement{}, err
	}

	return Entitlement{
		NoticeDays:      noticeDays,
		NoticeAmount:    notice,
		SeveranceDays:   severanceDays,
		SeveranceAmount: severance,
		Total:           total,
		Years:           years,
		Months:          months,
		Days:            days,
	}, nil
}

// inclusiveSpan treats the range as inclusive for labor rights: Jan 1 to
// Dec 31 of the same year is exactly one year. Day borrowing uses the
// standard 30-day labor month.
func inclusiveSpan(start, end time.Time) (years, months, days int) {
	target := end.AddDate(0, 0, 1)

	years = target.Year() - start.Year()
	months = int(target.Month()) - int(start.Month())
	days = target.Day() - start.Day()

	if days < 0 {
		months--
		days += 30
	}
	if months < 0 {
		years--
		months += 12
	}
	return years, months, days
}

// noticeDaysFor follows Art. 76: 7 days after 3 months, 14 after 6 months,
// 28 after a year.
func noticeDaysFor(years, months int) int {
	switch {
	case years >= 1:
		return 28
	case months >= 6:
		return 14
	case months >= 3:
		return 7
	default:
		return 0
	}
}

// severanceDaysFor follows Art. 80: 6/13 days inside the first year, then 21
// days per year (23 from the fifth year), plus the fractional-month top-up
// once a full year is reached.
func severanceDaysFor(years, months int) int {
	var days int
	switch {
	case years >= 5:
		days = years * 23
	case years >= 1:
		days = years * 21
	case months >= 6:
		return 13
	case months >= 3:
		return 6
	default:
		return 0
	}

	if months >= 6 {
		days += 13
	} else if months >= 3 {
		days += 6
	}
	return days
}
