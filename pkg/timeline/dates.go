package timeline

import (
	"time"

	"github.com/creditline/loanledger/pkg/models"
)

// headroomDays extends the synthesized date range one reporting month past
// the last recorded event.
const headroomDays = 31

// boundaryDates lists period starts within [rangeStart, rangeEnd), stepping
// monthStep months from January 1 of the range's first year; the first
// boundary at or after rangeStart anchors the sequence.
func boundaryDates(rangeStart, rangeEnd time.Time, monthStep int) []time.Time {
	d := time.Date(rangeStart.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Before(rangeStart) {
		d = d.AddDate(0, monthStep, 0)
	}
	var dates []time.Time
	for d.Before(rangeEnd) {
		dates = append(dates, d)
		d = d.AddDate(0, monthStep, 0)
	}
	return dates
}

func monthStarts(rangeStart, rangeEnd time.Time) []time.Time {
	return boundaryDates(rangeStart, rangeEnd, 1)
}

func quarterStarts(rangeStart, rangeEnd time.Time) []time.Time {
	return boundaryDates(rangeStart, rangeEnd, 3)
}

func yearStarts(rangeStart, rangeEnd time.Time) []time.Time {
	return boundaryDates(rangeStart, rangeEnd, 12)
}

// SynthesizeDates completes the aggregated map into a gapless reporting
// timeline: monthly reporting boundaries always, calendar-year boundaries
// when the day-count base is calendar-sensitive, and quarter starts when the
// loan capitalizes. Synthesized dates never replace an existing entry. The
// quarter-start set is returned as well because the engine must recognize
// those dates to trigger capitalization.
func SynthesizeDates(loan *models.Loan, aggregated map[time.Time]*models.LedgerEntry) ([]*models.LedgerEntry, map[time.Time]bool) {
	if len(aggregated) == 0 {
		return nil, nil
	}

	var rangeStart, rangeEnd time.Time
	for date := range aggregated {
		if rangeStart.IsZero() || date.Before(rangeStart) {
			rangeStart = date
		}
		if rangeEnd.IsZero() || date.After(rangeEnd) {
			rangeEnd = date
		}
	}
	rangeEnd = rangeEnd.AddDate(0, 0, headroomDays)

	insert := func(dates []time.Time) {
		for _, date := range dates {
			if _, ok := aggregated[date]; !ok {
				aggregated[date] = &models.LedgerEntry{StartDate: date, FactDate: date}
			}
		}
	}

	capitalizationDates := make(map[time.Time]bool)
	if loan.Capitalization {
		quarters := quarterStarts(rangeStart, rangeEnd)
		for _, date := range quarters {
			capitalizationDates[date] = true
		}
		insert(quarters)
	}
	if loan.InterestRateBase == models.RateBaseCalendar {
		insert(yearStarts(rangeStart, rangeEnd))
	}
	insert(monthStarts(rangeStart, rangeEnd))

	return sortEntries(aggregated), capitalizationDates
}
