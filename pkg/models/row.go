package models

import (
	"strconv"
	"strings"
)

const dateLayout = "2006-01-02"

// Row flattens a ledger entry into string-formatted fields for the display
// layer. Monetary amounts are fixed to two decimal places; dates use
// YYYY-MM-DD; event ids are comma-joined.
func (e *LedgerEntry) Row() map[string]string {
	ids := make([]string, 0, len(e.EventIDs))
	for _, id := range e.EventIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	return map[string]string{
		"event_fact_date":     e.FactDate.Format(dateLayout),
		"event_start_date":    e.StartDate.Format(dateLayout),
		"event_end_date":      e.EndDate.Format(dateLayout),
		"days_count":          strconv.Itoa(e.Days),
		"event_ids":           strings.Join(ids, ","),
		"principal_lending":   e.PrincipalLending.StringFixed(2),
		"capitalization":      e.Capitalization.StringFixed(2),
		"principal_repayment": e.PrincipalRepayment.StringFixed(2),
		"principal_balance":   e.PrincipalBalance.StringFixed(2),
		"interest_rate":       e.InterestRate.String(),
		"interest_rate_base":  e.RateBaseDivisor.String(),
		"interest_accrued":    e.InterestAccrued.StringFixed(2),
		"interest_repayment":  e.InterestRepayment.StringFixed(2),
		"interest_balance":    e.InterestBalance.StringFixed(2),
	}
}
