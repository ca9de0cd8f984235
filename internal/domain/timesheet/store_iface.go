package timesheet

import (
	"context"
	"time"
)

type StoreAPI interface {
	Get(ctx context.Context, id int64) (*Timesheet, error)
	GetForEmployee(ctx context.Context, id, employeeID int64) (*Timesheet, error)
	FindByPeriod(ctx context.Context, employeeID, projectID int64, periodStart, periodEnd time.Time) (*Timesheet, error)
	Create(ctx context.Context, ts *Timesheet) (*Timesheet, error)
	UpdateEntries(ctx context.Context, id int64, entries []DailyEntry, totalHours float64, now time.Time) (*Timesheet, error)
	List(ctx context.Context, filter ListFilter) ([]Timesheet, error)
	StatusOf(ctx context.Context, id int64) (string, error)
	Approve(ctx context.Context, id, approverID int64, now time.Time) (bool, error)
	Reject(ctx context.Context, id, rejecterID int64, reason string, now time.Time) (bool, error)
	DeleteDuplicateDrafts(ctx context.Context, projectID int64) (int64, error)
	Begin(ctx context.Context) (SubmissionTx, error)
}

// SubmissionTx is the unit of work for the submit transition: lock the
// row, decide, write, then commit or roll back. Kept narrow so tests
// can run against a deterministic in-memory implementation while the
// production store maps it onto a pgx transaction.
type SubmissionTx interface {
	LockForSubmit(ctx context.Context, id, employeeID int64) (SubmissionRow, error)
	CompleteSubmit(ctx context.Context, id int64, target string, now time.Time) (*Timesheet, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
