package timesheet

import "time"

const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	PeriodWeekly    = "weekly"
	PeriodBiMonthly = "bi-monthly"
	PeriodMonthly   = "monthly"
)

type Timesheet struct {
	ID              int64        `json:"id"`
	EmployeeID      int64        `json:"employeeId"`
	ProjectID       int64        `json:"projectId"`
	PeriodStart     time.Time    `json:"periodStart"`
	PeriodEnd       time.Time    `json:"periodEnd"`
	Status          string       `json:"status"`
	Entries         []DailyEntry `json:"dailyEntries"`
	TotalHours      float64      `json:"totalHours"`
	SubmittedAt     *time.Time   `json:"submittedAt,omitempty"`
	ApprovedBy      *int64       `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time   `json:"approvedAt,omitempty"`
	RejectedBy      *int64       `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time   `json:"rejectedAt,omitempty"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
	ReminderCount   int          `json:"reminderCount"`
	LastReminderAt  *time.Time   `json:"lastReminderAt,omitempty"`
	Escalated       bool         `json:"escalated"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

type DailyEntry struct {
	Date  string      `json:"date"`
	Hours float64     `json:"hours"`
	Tasks []TaskEntry `json:"tasks,omitempty"`
}

type TaskEntry struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// SubmissionRow is the locked snapshot read inside the submission
// transaction: the timesheet joined read-only to its project.
type SubmissionRow struct {
	ID          int64
	EmployeeID  int64
	ProjectID   int64
	Status      string
	TotalHours  float64
	AutoApprove bool
}

type ListFilter struct {
	EmployeeID int64
	ProjectID  int64
	Status     string
	Limit      int
	Offset     int
}
