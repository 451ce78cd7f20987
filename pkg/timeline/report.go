package timeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/creditline/loanledger/pkg/models"
)

// BalanceReport returns the principal balance as of reportDate: zero before
// the first entry, the exact entry's balance at an entry date, otherwise the
// last balance established strictly before the date. Past the final entry
// the last balance carries forward unchanged.
func BalanceReport(ledger []*models.LedgerEntry, reportDate time.Time) decimal.Decimal {
	date := dateOnly(reportDate)
	balance := decimal.Zero
	for _, entry := range ledger {
		if entry.StartDate.After(date) {
			return balance
		}
		balance = entry.PrincipalBalance
		if entry.StartDate.Equal(date) {
			return balance
		}
	}
	return balance
}
