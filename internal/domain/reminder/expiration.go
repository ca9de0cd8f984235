package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	FreqDaily     = "daily"
	FreqWeekly    = "weekly"
	FreqBiWeekly  = "bi-weekly"
	FreqBiMonthly = "bi-monthly"
	FreqMonthly   = "monthly"
	FreqQuarterly = "quarterly"
)

// ValidFrequency reports whether f is an accepted recurring frequency.
func ValidFrequency(f string) bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqBiWeekly, FreqBiMonthly, FreqMonthly, FreqQuarterly:
		return true
	}
	return false
}

// ExpirationScheduler reminds about approaching employee end dates.
// The tracker setting is fetched fresh each run, so admin changes take
// effect on the next pass without restarts. No per-employee state is
// kept; the frequency policy alone decides which days fire.
type ExpirationScheduler struct {
	Settings SettingsProvider
	Store    ExpirationStore
	Notify   Notifier
}

type ExpirationResult struct {
	Examined int `json:"examined"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
}

func (s *ExpirationScheduler) RunOnce(ctx context.Context, now time.Time) (ExpirationResult, error) {
	setting, err := s.Settings.TrackerSetting(ctx)
	if err != nil {
		return ExpirationResult{}, fmt.Errorf("load tracker setting: %w", err)
	}
	employees, err := s.Store.ExpiringEmployees(ctx)
	if err != nil {
		return ExpirationResult{}, fmt.Errorf("list expiring employees: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	result := ExpirationResult{Examined: len(employees)}
	for _, emp := range employees {
		end := time.Date(emp.EndDate.Year(), emp.EndDate.Month(), emp.EndDate.Day(), 0, 0, 0, 0, time.UTC)
		days := int(end.Sub(today).Hours() / 24)
		if days < 0 || days > setting.TargetDays {
			continue
		}
		months := monthsUntil(today, end)
		if !triggers(setting.Recurring, days, months) {
			continue
		}
		if emp.Email == "" {
			continue
		}
		if !s.Notify.Deliver(ctx, []string{emp.Email}, "Contract end date approaching",
			fmt.Sprintf("Reminder: the end date for %s is %s (%d days away).",
				emp.Name, end.Format(dateLayout), days)) {
			slog.Warn("expiration reminder not delivered", "employeeId", emp.ID)
			result.Failed++
			continue
		}
		result.Sent++
	}
	return result, nil
}

func monthsUntil(today, end time.Time) int {
	return (end.Year()-today.Year())*12 + int(end.Month()) - int(today.Month())
}

// triggers implements the per-frequency firing policy. Non-daily
// frequencies only fire on matching days so a daily run does not spam.
func triggers(frequency string, days, months int) bool {
	switch frequency {
	case FreqDaily:
		return true
	case FreqWeekly:
		return days%7 == 0
	case FreqBiWeekly:
		return days%14 == 0
	case FreqBiMonthly:
		return months%2 == 0 && months <= 6
	case FreqQuarterly:
		return months%3 == 0 && months <= 6
	default: // monthly
		return months >= 1 && months <= 6
	}
}
