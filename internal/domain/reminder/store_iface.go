package reminder

import (
	"context"
	"time"
)

// Candidate is one outstanding timesheet row as the submission
// scheduler sees it, joined with the owning project's approval policy.
type Candidate struct {
	ID             int64
	EmployeeID     int64
	ProjectID      int64
	Status         string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	ReminderCount  int
	LastReminderAt *time.Time
	Escalated      bool
	AutoApprove    bool
}

// ExpiringEmployee is an active employee with a known end date.
type ExpiringEmployee struct {
	ID      int64
	Name    string
	Email   string
	EndDate time.Time
}

// TrackerSetting drives the expiration scheduler's trigger policy.
type TrackerSetting struct {
	TargetDays int    `json:"targetDays"`
	Recurring  string `json:"recurring"`
}

type SubmissionStore interface {
	// OutstandingTimesheets returns draft and pending timesheets whose
	// period ended on or before the given date. The per-day reminder
	// gate is applied by the scheduler, in the business timezone.
	OutstandingTimesheets(ctx context.Context, endedBy time.Time) ([]Candidate, error)
	// MarkReminded records a successful reminder delivery. When
	// escalate is set the timesheet is additionally flagged escalated.
	MarkReminded(ctx context.Context, id int64, now time.Time, escalate bool) error
}

type ExpirationStore interface {
	ExpiringEmployees(ctx context.Context) ([]ExpiringEmployee, error)
}

type SettingsProvider interface {
	// TrackerSetting returns the singleton setting, creating the
	// default {180 days, monthly} record on first access.
	TrackerSetting(ctx context.Context) (TrackerSetting, error)
}

type Directory interface {
	EmployeeEmail(ctx context.Context, employeeID int64) (string, error)
	ManagerEmails(ctx context.Context, projectID int64) ([]string, error)
}

type Notifier interface {
	Deliver(ctx context.Context, recipients []string, subject, htmlBody string) bool
}
