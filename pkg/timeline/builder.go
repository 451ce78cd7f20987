package timeline

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creditline/loanledger/pkg/models"
)

var one = decimal.NewFromInt(1)

// dateOnly drops the time-of-day component so every ledger key is a plain
// UTC calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// resolveFlow turns one monetary field of a raw event into a Currency tagged
// with the resolved ticker and rate, plus the amount converted to the loan's
// base currency. An explicitly unset currency falls back to the loan's base
// currency with a warning; a foreign ticker without a rate is an error.
func resolveFlow(loan *models.Loan, raw *models.RawEvent, amount decimal.Decimal) (*models.Currency, decimal.Decimal, error) {
	ticker := loan.BaseCurrency
	if raw.Currency != nil {
		ticker = *raw.Currency
	} else {
		log.Printf("Warning: currency not set for event %d, defaulting to loan base currency %s", raw.EventID, loan.BaseCurrency)
	}

	if ticker != loan.BaseCurrency && raw.CurrencyToLoanRate == nil {
		return nil, decimal.Zero, &MissingRateError{EventID: raw.EventID, Ticker: ticker, BaseCurrency: loan.BaseCurrency}
	}

	rate := one
	if raw.CurrencyToLoanRate != nil {
		rate = *raw.CurrencyToLoanRate
	}

	currency := &models.Currency{Amount: amount, Ticker: ticker, RateToLoan: rate}
	if ticker != loan.BaseCurrency {
		return currency, currency.ConvertedAmount(), nil
	}
	return currency, amount, nil
}

// BuildEvent validates one raw record against its loan and resolves it into
// an Event: monetary fields converted to base currency and the effective
// start date shifted by one day for flows the loan counts exclusively.
// When several flows are present on one record the start date is decided by
// the last flow processed: lending, then principal repayment, then interest
// repayment.
func BuildEvent(loan *models.Loan, raw *models.RawEvent) (models.Event, error) {
	factDate := dateOnly(raw.FactDate)
	startDate := factDate

	event := models.Event{
		EventID:  raw.EventID,
		LoanID:   raw.LoanID,
		FactDate: factDate,
	}

	if raw.PrincipalLending != nil {
		currency, converted, err := resolveFlow(loan, raw, *raw.PrincipalLending)
		if err != nil {
			return models.Event{}, err
		}
		event.PrincipalLendingCurrency = currency
		event.PrincipalLending = converted
		if loan.LendingDateExclusive {
			startDate = factDate.AddDate(0, 0, 1)
		} else {
			startDate = factDate
		}
	}

	// Negative or absent repayment amounts are sentinel values from the
	// store and are skipped entirely.
	if raw.PrincipalRepayment != nil && !raw.PrincipalRepayment.IsNegative() {
		currency, converted, err := resolveFlow(loan, raw, *raw.PrincipalRepayment)
		if err != nil {
			return models.Event{}, err
		}
		event.PrincipalRepaymentCurrency = currency
		event.PrincipalRepayment = converted
		if loan.RepaymentDateExclusive {
			startDate = factDate.AddDate(0, 0, 1)
		} else {
			startDate = factDate
		}
	}

	if raw.InterestRepayment != nil && !raw.InterestRepayment.IsNegative() {
		currency, converted, err := resolveFlow(loan, raw, *raw.InterestRepayment)
		if err != nil {
			return models.Event{}, err
		}
		event.InterestRepaymentCurrency = currency
		event.InterestRepayment = converted
		if loan.RepaymentDateExclusive {
			startDate = factDate.AddDate(0, 0, 1)
		} else {
			startDate = factDate
		}
	}

	if raw.Capitalization != nil {
		event.Capitalization = *raw.Capitalization
	}
	if raw.InterestRate != nil {
		event.InterestRate = *raw.InterestRate
	}
	if raw.PrincipalBalanceCorrection != nil {
		event.PrincipalBalanceCorrection = *raw.PrincipalBalanceCorrection
	}
	if raw.InterestBalanceCorrection != nil {
		event.InterestBalanceCorrection = *raw.InterestBalanceCorrection
	}

	event.StartDate = startDate
	return event, nil
}

// BuildEvents resolves a batch of raw records against the loans they
// reference. Fails on the first record whose loan id is unknown.
func BuildEvents(loans map[uuid.UUID]*models.Loan, raws []models.RawEvent) ([]models.Event, error) {
	events := make([]models.Event, 0, len(raws))
	for i := range raws {
		loan, ok := loans[raws[i].LoanID]
		if !ok {
			return nil, fmt.Errorf("event %d: %w: %s", raws[i].EventID, ErrLoanNotFound, raws[i].LoanID)
		}
		event, err := BuildEvent(loan, &raws[i])
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
