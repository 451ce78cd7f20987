package timeline

import (
	"errors"
	"fmt"
)

// ErrLoanNotFound is returned when a raw event references a loan id that is
// not present in the loan set for the calculation run.
var ErrLoanNotFound = errors.New("loan not found")

// MissingRateError reports an event whose transaction currency differs from
// the loan's base currency with no conversion rate supplied.
type MissingRateError struct {
	EventID      int64
	Ticker       string
	BaseCurrency string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("missing currency conversion rate for event %d: %s -> %s", e.EventID, e.Ticker, e.BaseCurrency)
}
