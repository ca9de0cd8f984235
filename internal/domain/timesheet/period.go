package timesheet

import (
	"fmt"
	"time"
)

// PeriodFor returns the [start, end] date range the reference date
// falls into for the given project cadence. Results are date-only UTC
// values; the calculation is pure calendar arithmetic.
func PeriodFor(periodType string, ref time.Time) (time.Time, time.Time, error) {
	year, month, day := ref.Date()
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	switch periodType {
	case PeriodWeekly:
		// Weeks run Monday through Sunday; Sunday is 6 days since
		// Monday, not the week start.
		offset := (int(date.Weekday()) + 6) % 7
		start := date.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6), nil

	case PeriodBiMonthly:
		if day <= 15 {
			start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
			return start, end, nil
		}
		start := time.Date(year, month, 16, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		return start, end, nil

	case PeriodMonthly:
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		return start, end, nil

	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCadence, periodType)
	}
}
