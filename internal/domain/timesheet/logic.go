package timesheet

import (
	"fmt"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Editable reports whether timesheet content may change in the given
// status. Rejected timesheets stay editable so the employee can fix
// and resubmit.
func Editable(status string) bool {
	return status == StatusDraft || status == StatusRejected
}

// Submittable reports whether a timesheet in the given status may be
// submitted for approval.
func Submittable(status string) bool {
	return status == StatusDraft || status == StatusRejected
}

// TotalHours sums daily entry hours across the whole timesheet.
func TotalHours(entries []DailyEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Hours
	}
	return total
}

// NormalizeEntries validates the daily entries against the timesheet
// period and returns a copy sorted by date with each entry's hours
// recomputed from its task breakdown. The cached total is always the
// sum of the normalized entry hours.
func NormalizeEntries(entries []DailyEntry, periodStart, periodEnd time.Time) ([]DailyEntry, float64, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]DailyEntry, 0, len(entries))

	for _, e := range entries {
		date, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			return nil, 0, validationError(fmt.Sprintf("entry date %q is not YYYY-MM-DD", e.Date))
		}
		if date.Before(periodStart) || date.After(periodEnd) {
			return nil, 0, validationError(fmt.Sprintf("entry date %s is outside the timesheet period", e.Date))
		}
		if seen[e.Date] {
			return nil, 0, validationError(fmt.Sprintf("duplicate entry for %s", e.Date))
		}
		seen[e.Date] = true

		entry := DailyEntry{Date: e.Date, Hours: e.Hours}
		if len(e.Tasks) > 0 {
			entry.Hours = 0
			entry.Tasks = make([]TaskEntry, 0, len(e.Tasks))
			for _, task := range e.Tasks {
				if task.Name == "" {
					return nil, 0, validationError(fmt.Sprintf("entry %s has a task without a name", e.Date))
				}
				if task.Hours < 0 {
					return nil, 0, validationError(fmt.Sprintf("entry %s has negative task hours", e.Date))
				}
				entry.Tasks = append(entry.Tasks, task)
				entry.Hours += task.Hours
			}
		}
		if entry.Hours < 0 {
			return nil, 0, validationError(fmt.Sprintf("entry %s has negative hours", e.Date))
		}
		if entry.Hours > 24 {
			return nil, 0, validationError(fmt.Sprintf("entry %s exceeds 24 hours", e.Date))
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, TotalHours(out), nil
}
