package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InterestRateBase selects the divisor used to turn an annual rate into a
// daily rate: a fixed 360 or 365, or "calendar" which uses 366 on leap years.
type InterestRateBase string

const (
	RateBase360      InterestRateBase = "360"
	RateBase365      InterestRateBase = "365"
	RateBaseCalendar InterestRateBase = "calendar"
)

type Loan struct {
	ID                     uuid.UUID        `json:"id"`
	Lender                 string           `json:"lender"`
	Borrower               string           `json:"borrower"`
	Description            string           `json:"description"`
	BaseCurrency           string           `json:"base_currency"`
	InterestRateBase       InterestRateBase `json:"interest_rate_base"`
	LendingDateExclusive   bool             `json:"lending_date_exclusive_counting"`   // interest starts the day after a lending
	RepaymentDateExclusive bool             `json:"repayment_date_exclusive_counting"` // interest stops the day after a repayment
	Capitalization         bool             `json:"capitalization"`                    // accrue-to-principal at quarter starts
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
	Archived               bool             `json:"archived"`
}

// RawEvent is one stored financial fact as it comes out of the events table.
// All monetary fields are in the event's transaction currency and optional:
// a nil pointer means the field was not recorded for this event.
type RawEvent struct {
	EventID                    int64            `json:"event_id"`
	LoanID                     uuid.UUID        `json:"loan_id"`
	FactDate                   time.Time        `json:"event_fact_date"`
	Currency                   *string          `json:"currency,omitempty"`
	CurrencyToLoanRate         *decimal.Decimal `json:"currency_to_loan_rate,omitempty"`
	PrincipalLending           *decimal.Decimal `json:"principal_lending_currency,omitempty"`
	PrincipalRepayment         *decimal.Decimal `json:"principal_repayment_currency,omitempty"`
	InterestRepayment          *decimal.Decimal `json:"interest_repayment_currency,omitempty"`
	Capitalization             *decimal.Decimal `json:"capitalization,omitempty"`
	InterestRate               *decimal.Decimal `json:"interest_rate,omitempty"`
	PrincipalBalanceCorrection *decimal.Decimal `json:"principal_balance_correction,omitempty"`
	InterestBalanceCorrection  *decimal.Decimal `json:"interest_balance_correction,omitempty"`
}

// Currency is a monetary amount tagged with its ticker and the conversion
// rate into the loan's base currency.
type Currency struct {
	Amount     decimal.Decimal `json:"amount"`
	Ticker     string          `json:"ticker"`
	RateToLoan decimal.Decimal `json:"currency_to_loan_rate"`
}

// ConvertedAmount returns the amount expressed in the loan's base currency.
func (c Currency) ConvertedAmount() decimal.Decimal {
	return c.Amount.Mul(c.RateToLoan)
}

// Event is a validated raw event with every monetary field resolved to the
// loan's base currency and the effective start date adjusted for the loan's
// exclusive-counting flags. Absent fields are left at decimal zero.
type Event struct {
	EventID   int64
	LoanID    uuid.UUID
	FactDate  time.Time
	StartDate time.Time

	PrincipalLendingCurrency   *Currency
	PrincipalLending           decimal.Decimal
	PrincipalRepaymentCurrency *Currency
	PrincipalRepayment         decimal.Decimal
	InterestRepaymentCurrency  *Currency
	InterestRepayment          decimal.Decimal

	Capitalization             decimal.Decimal
	InterestRate               decimal.Decimal
	PrincipalBalanceCorrection decimal.Decimal
	InterestBalanceCorrection  decimal.Decimal
}

// LedgerEntry is one calendar date's aggregated activity plus the balances
// derived by the engine pass.
type LedgerEntry struct {
	StartDate time.Time `json:"event_start_date"`
	FactDate  time.Time `json:"event_fact_date"`
	EndDate   time.Time `json:"event_end_date"`
	Days      int       `json:"days_count"`
	EventIDs  []int64   `json:"event_ids"`

	PrincipalLending           decimal.Decimal `json:"principal_lending"`
	PrincipalRepayment         decimal.Decimal `json:"principal_repayment"`
	InterestRepayment          decimal.Decimal `json:"interest_repayment"`
	Capitalization             decimal.Decimal `json:"capitalization"`
	InterestRate               decimal.Decimal `json:"interest_rate"`
	PrincipalBalanceCorrection decimal.Decimal `json:"principal_balance_correction"`
	InterestBalanceCorrection  decimal.Decimal `json:"interest_balance_correction"`

	// Derived by the engine pass.
	RateBaseDivisor  decimal.Decimal `json:"interest_rate_base"`
	PrincipalBalance decimal.Decimal `json:"principal_balance"`
	InterestAccrued  decimal.Decimal `json:"interest_accrued"`
	InterestBalance  decimal.Decimal `json:"interest_balance"`
}
