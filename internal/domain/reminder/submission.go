package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EscalationThreshold is the reminder count at which an unresolved
// timesheet is escalated to the project's managers, once.
const EscalationThreshold = 3

const dateLayout = "2006-01-02"

// SubmissionScheduler nags employees (and managers, for pending
// timesheets) about timesheets whose period has ended without being
// approved. It is level-triggered: each pass re-derives its work from
// persisted state, so missed ticks only delay reminders, never lose
// them.
type SubmissionScheduler struct {
	Store    SubmissionStore
	Dir      Directory
	Notify   Notifier
	Location *time.Location
}

type SubmissionResult struct {
	Skipped   bool `json:"skipped"`
	Examined  int  `json:"examined"`
	Reminded  int  `json:"reminded"`
	Escalated int  `json:"escalated"`
	Failed    int  `json:"failed"`
}

// RunOnce performs a single reminder pass. Outside Monday–Friday in
// the business timezone the whole run is skipped. Per-candidate
// failures are logged and do not stop the pass.
func (s *SubmissionScheduler) RunOnce(ctx context.Context, now time.Time) (SubmissionResult, error) {
	local := now.In(s.Location)
	if !workingDay(local) {
		return SubmissionResult{Skipped: true}, nil
	}
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	candidates, err := s.Store.OutstandingTimesheets(ctx, today)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("list outstanding timesheets: %w", err)
	}

	result := SubmissionResult{Examined: len(candidates)}
	for _, c := range candidates {
		// At most one reminder per timesheet per business day.
		if c.LastReminderAt != nil && sameDay(*c.LastReminderAt, local, s.Location) {
			continue
		}
		delivered, escalated := s.remind(ctx, c, now)
		if !delivered {
			result.Failed++
			continue
		}
		if err := s.Store.MarkReminded(ctx, c.ID, now, escalated); err != nil {
			slog.Warn("reminder bookkeeping failed", "timesheetId", c.ID, "err", err)
			continue
		}
		result.Reminded++
		if escalated {
			result.Escalated++
		}
	}
	return result, nil
}

// remind sends the employee and (if applicable) manager reminders for
// one candidate. It reports whether at least one group accepted the
// message and whether an escalation notice went out.
func (s *SubmissionScheduler) remind(ctx context.Context, c Candidate, now time.Time) (delivered, escalated bool) {
	period := fmt.Sprintf("%s – %s", c.PeriodStart.Format(dateLayout), c.PeriodEnd.Format(dateLayout))

	if email, err := s.Dir.EmployeeEmail(ctx, c.EmployeeID); err == nil && email != "" {
		if s.Notify.Deliver(ctx, []string{email}, "Timesheet reminder",
			fmt.Sprintf("Your timesheet for %s is still %s. Please submit it for approval.", period, c.Status)) {
			delivered = true
		}
	} else if err != nil {
		slog.Warn("employee lookup for reminder failed", "employeeId", c.EmployeeID, "err", err)
	}

	var managers []string
	if c.Status == "pending" && !c.AutoApprove {
		var err error
		managers, err = s.Dir.ManagerEmails(ctx, c.ProjectID)
		if err != nil {
			slog.Warn("manager lookup for reminder failed", "projectId", c.ProjectID, "err", err)
		}
		if len(managers) > 0 && s.Notify.Deliver(ctx, managers, "Timesheet awaiting approval",
			fmt.Sprintf("A timesheet for %s is still awaiting your approval.", period)) {
			delivered = true
		}
	}
	if !delivered {
		return false, false
	}

	// Escalate when this delivery brings the count to the threshold, or
	// on a later pass if an earlier escalation notice never went out.
	// The escalated flag keeps it to one successful escalation.
	if c.ReminderCount+1 >= EscalationThreshold && !c.Escalated {
		if managers == nil {
			var err error
			managers, err = s.Dir.ManagerEmails(ctx, c.ProjectID)
			if err != nil {
				slog.Warn("manager lookup for escalation failed", "projectId", c.ProjectID, "err", err)
			}
		}
		if len(managers) > 0 && s.Notify.Deliver(ctx, managers, "Timesheet escalation",
			fmt.Sprintf("A timesheet for %s has been reminded %d times without resolution.", period, EscalationThreshold)) {
			escalated = true
		}
	}
	return delivered, escalated
}

func workingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
