package timeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/creditline/loanledger/pkg/models"
)

var (
	divisor360 = decimal.NewFromInt(360)
	divisor365 = decimal.NewFromInt(365)
	divisor366 = decimal.NewFromInt(366)
)

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// rateBaseDivisor picks the day-count divisor for a period starting at
// startDate: in calendar mode it follows the start date's year, otherwise it
// is the loan's fixed base.
func rateBaseDivisor(loan *models.Loan, startDate time.Time) decimal.Decimal {
	switch loan.InterestRateBase {
	case models.RateBaseCalendar:
		if isLeapYear(startDate.Year()) {
			return divisor366
		}
		return divisor365
	case models.RateBase360:
		return divisor360
	default:
		return divisor365
	}
}

// Run walks the sorted ledger once, maintaining running principal balance,
// interest balance and current interest rate, and fills in every entry's
// derived fields. Entries whose start date is a capitalization boundary have
// their capitalization set to the interest balance accrued so far, which
// then moves into principal in the same entry.
func Run(loan *models.Loan, ledger []*models.LedgerEntry, capitalizationDates map[time.Time]bool) {
	principalBalance := decimal.Zero
	interestBalance := decimal.Zero
	currentRate := decimal.Zero

	for i, entry := range ledger {
		// Rate changes take effect starting at their own entry; every
		// entry then reports the rate in force during its period.
		if entry.InterestRate.IsPositive() {
			currentRate = entry.InterestRate
		}
		entry.InterestRate = currentRate

		if loan.Capitalization && capitalizationDates[entry.StartDate] {
			entry.Capitalization = interestBalance
		}

		principalBalance = principalBalance.
			Add(entry.PrincipalLending).
			Add(entry.Capitalization).
			Sub(entry.PrincipalRepayment).
			Add(entry.PrincipalBalanceCorrection)
		entry.PrincipalBalance = principalBalance

		if i < len(ledger)-1 {
			next := ledger[i+1]
			entry.Days = int(next.StartDate.Sub(entry.StartDate).Hours() / 24)
		} else {
			entry.Days = 0
		}
		if entry.Days > 1 {
			entry.EndDate = entry.StartDate.AddDate(0, 0, entry.Days-1)
		} else {
			entry.EndDate = entry.StartDate
		}

		divisor := rateBaseDivisor(loan, entry.StartDate)
		entry.RateBaseDivisor = divisor

		// Interest accrues on the balance established by this entry's own
		// flows, for the whole window to the next entry.
		entry.InterestAccrued = currentRate.Div(divisor).
			Mul(decimal.NewFromInt(int64(entry.Days))).
			Mul(principalBalance)

		interestBalance = interestBalance.
			Add(entry.InterestAccrued).
			Sub(entry.Capitalization).
			Sub(entry.InterestRepayment).
			Add(entry.InterestBalanceCorrection)
		entry.InterestBalance = interestBalance
	}
}
