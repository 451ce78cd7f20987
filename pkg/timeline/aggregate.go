package timeline

import (
	"sort"
	"time"

	"github.com/creditline/loanledger/pkg/models"
)

// SortEvents orders events by start date, tie-broken by event id so that
// same-day events fold in a stable order.
func SortEvents(events []models.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].EventID < events[j].EventID
	})
}

// AggregateByDate folds sorted events into one ledger entry per distinct
// start date. Monetary fields are summed; the interest rate is overwritten
// by the last event at that date carrying a rate; event ids accumulate in
// encounter order.
func AggregateByDate(events []models.Event) map[time.Time]*models.LedgerEntry {
	aggregated := make(map[time.Time]*models.LedgerEntry)
	for i := range events {
		event := &events[i]
		key := event.StartDate
		entry, ok := aggregated[key]
		if !ok {
			entry = &models.LedgerEntry{
				StartDate: event.StartDate,
				FactDate:  event.FactDate,
			}
			aggregated[key] = entry
		}
		entry.PrincipalLending = entry.PrincipalLending.Add(event.PrincipalLending)
		entry.PrincipalRepayment = entry.PrincipalRepayment.Add(event.PrincipalRepayment)
		entry.InterestRepayment = entry.InterestRepayment.Add(event.InterestRepayment)
		entry.Capitalization = entry.Capitalization.Add(event.Capitalization)
		entry.PrincipalBalanceCorrection = entry.PrincipalBalanceCorrection.Add(event.PrincipalBalanceCorrection)
		entry.InterestBalanceCorrection = entry.InterestBalanceCorrection.Add(event.InterestBalanceCorrection)
		if !event.InterestRate.IsZero() {
			entry.InterestRate = event.InterestRate
		}
		entry.EventIDs = append(entry.EventIDs, event.EventID)
	}
	return aggregated
}

// sortEntries flattens the date-keyed map into the final ascending ledger.
func sortEntries(aggregated map[time.Time]*models.LedgerEntry) []*models.LedgerEntry {
	ledger := make([]*models.LedgerEntry, 0, len(aggregated))
	for _, entry := range aggregated {
		ledger = append(ledger, entry)
	}
	sort.Slice(ledger, func(i, j int) bool {
		return ledger[i].StartDate.Before(ledger[j].StartDate)
	})
	return ledger
}
