package timeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creditline/loanledger/pkg/models"
	"github.com/creditline/loanledger/pkg/store"
)

// Calculator runs the full pipeline for one loan: fetch the loan and its raw
// events, build and sort validated events, aggregate them by date, fill in
// the synthesized reporting dates and derive all balances in a single engine
// pass. Each call builds a fresh ledger from the store's current contents.
type Calculator struct {
	storage store.Storage
	loans   *LoanCache
}

func NewCalculator(s store.Storage, loans *LoanCache) *Calculator {
	return &Calculator{storage: s, loans: loans}
}

// Timeline computes the complete ledger for a loan.
func (c *Calculator) Timeline(loanID uuid.UUID) ([]*models.LedgerEntry, error) {
	loan, err := c.loans.Get(loanID)
	if err != nil {
		return nil, err
	}

	raws, err := c.storage.GetEventsForLoan(loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for loan %s: %w", loanID, err)
	}

	events, err := BuildEvents(map[uuid.UUID]*models.Loan{loan.ID: loan}, raws)
	if err != nil {
		return nil, err
	}

	return Compute(loan, events), nil
}

// Compute derives the ledger from already-built events. Exposed separately
// so callers with an in-memory event set can skip the store.
func Compute(loan *models.Loan, events []models.Event) []*models.LedgerEntry {
	SortEvents(events)
	aggregated := AggregateByDate(events)
	ledger, capitalizationDates := SynthesizeDates(loan, aggregated)
	Run(loan, ledger, capitalizationDates)
	return ledger
}

// BalanceAt computes the ledger and reports the principal balance as of the
// given date.
func (c *Calculator) BalanceAt(loanID uuid.UUID, date time.Time) (decimal.Decimal, error) {
	ledger, err := c.Timeline(loanID)
	if err != nil {
		return decimal.Zero, err
	}
	return BalanceReport(ledger, date), nil
}
