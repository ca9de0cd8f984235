package timesheet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const timesheetColumns = `
    id, employee_id, project_id, period_start, period_end, status, daily_entries, total_hours,
    submitted_at, approved_by, approved_at, rejected_by, rejected_at, COALESCE(rejection_reason, ''),
    reminder_count, last_reminder_at, escalated, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimesheet(row rowScanner) (*Timesheet, error) {
	var ts Timesheet
	var entriesJSON []byte
	if err := row.Scan(
		&ts.ID, &ts.EmployeeID, &ts.ProjectID, &ts.PeriodStart, &ts.PeriodEnd, &ts.Status, &entriesJSON, &ts.TotalHours,
		&ts.SubmittedAt, &ts.ApprovedBy, &ts.ApprovedAt, &ts.RejectedBy, &ts.RejectedAt, &ts.RejectionReason,
		&ts.ReminderCount, &ts.LastReminderAt, &ts.Escalated, &ts.CreatedAt, &ts.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(entriesJSON) > 0 {
		if err := json.Unmarshal(entriesJSON, &ts.Entries); err != nil {
			return nil, err
		}
	}
	return &ts, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Timesheet, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+timesheetColumns+` FROM timesheets WHERE id = $1`, id)
	return scanTimesheet(row)
}

func (s *Store) GetForEmployee(ctx context.Context, id, employeeID int64) (*Timesheet, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+timesheetColumns+`
    FROM timesheets
    WHERE id = $1 AND employee_id = $2
  `, id, employeeID)
	return scanTimesheet(row)
}

func (s *Store) FindByPeriod(ctx context.Context, employeeID, projectID int64, periodStart, periodEnd time.Time) (*Timesheet, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+timesheetColumns+`
    FROM timesheets
    WHERE employee_id = $1 AND project_id = $2 AND period_start = $3 AND period_end = $4
  `, employeeID, projectID, periodStart, periodEnd)
	return scanTimesheet(row)
}

func (s *Store) Create(ctx context.Context, ts *Timesheet) (*Timesheet, error) {
	entriesJSON, err := json.Marshal(ts.Entries)
	if err != nil {
		return nil, err
	}
	if ts.Entries == nil {
		entriesJSON = []byte("[]")
	}

	// Exactly one timesheet may exist per (employee, project, period).
	// A concurrent create for the same period loses the insert and
	// reads back the canonical row instead.
	row := s.DB.QueryRow(ctx, `
    INSERT INTO timesheets (employee_id, project_id, period_start, period_end, status, daily_entries, total_hours)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (employee_id, project_id, period_start, period_end) DO NOTHING
    RETURNING `+timesheetColumns,
		ts.EmployeeID, ts.ProjectID, ts.PeriodStart, ts.PeriodEnd, StatusDraft, entriesJSON, ts.TotalHours)

	created, err := scanTimesheet(row)
	if errors.Is(err, ErrNotFound) {
		return s.FindByPeriod(ctx, ts.EmployeeID, ts.ProjectID, ts.PeriodStart, ts.PeriodEnd)
	}
	return created, err
}

func (s *Store) UpdateEntries(ctx context.Context, id int64, entries []DailyEntry, totalHours float64, now time.Time) (*Timesheet, error) {
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entriesJSON = []byte("[]")
	}

	// The status predicate makes the editable check atomic: a submit
	// racing this write leaves zero rows instead of clobbering a
	// pending or approved timesheet.
	row := s.DB.QueryRow(ctx, `
    UPDATE timesheets
    SET daily_entries = $2,
        total_hours = $3,
        reminder_count = 0,
        last_reminder_at = NULL,
        escalated = false,
        updated_at = $4
    WHERE id = $1 AND status IN ($5, $6)
    RETURNING `+timesheetColumns, id, entriesJSON, totalHours, now, StatusDraft, StatusRejected)
	return scanTimesheet(row)
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE 1=1`
	args := []any{}
	if filter.EmployeeID != 0 {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.ProjectID != 0 {
		args = append(args, filter.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY period_start DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Timesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ts)
	}
	return out, rows.Err()
}

func (s *Store) StatusOf(ctx context.Context, id int64) (string, error) {
	var status string
	if err := s.DB.QueryRow(ctx, `SELECT status FROM timesheets WHERE id = $1`, id).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return status, nil
}

// Approve transitions pending -> approved in one conditional statement.
// The false return means no pending row matched; the caller reads the
// status back to tell not-found from wrong-state.
func (s *Store) Approve(ctx context.Context, id, approverID int64, now time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE timesheets
    SET status = $2,
        approved_by = $3,
        approved_at = $4,
        rejected_by = NULL,
        rejected_at = NULL,
        rejection_reason = NULL,
        reminder_count = 0,
        last_reminder_at = NULL,
        escalated = false,
        updated_at = $4
    WHERE id = $1 AND status = $5
  `, id, StatusApproved, approverID, now, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) Reject(ctx context.Context, id, rejecterID int64, reason string, now time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE timesheets
    SET status = $2,
        rejected_by = $3,
        rejected_at = $4,
        rejection_reason = $5,
        approved_by = NULL,
        approved_at = NULL,
        reminder_count = 0,
        last_reminder_at = NULL,
        escalated = false,
        updated_at = $4
    WHERE id = $1 AND status = $6
  `, id, StatusRejected, rejecterID, now, reason, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteDuplicateDrafts removes newer duplicate drafts left behind by
// a project period-type change, keeping the oldest row per
// (employee, period) as canonical.
func (s *Store) DeleteDuplicateDrafts(ctx context.Context, projectID int64) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM timesheets t
    USING timesheets keep
    WHERE t.project_id = $1
      AND keep.project_id = t.project_id
      AND keep.employee_id = t.employee_id
      AND keep.period_start = t.period_start
      AND keep.period_end = t.period_end
      AND keep.id < t.id
      AND t.status = $2
  `, projectID, StatusDraft)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Begin(ctx context.Context) (SubmissionTx, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &submissionTx{tx: tx}, nil
}

type submissionTx struct {
	tx pgx.Tx
}

func (t *submissionTx) LockForSubmit(ctx context.Context, id, employeeID int64) (SubmissionRow, error) {
	var row SubmissionRow
	err := t.tx.QueryRow(ctx, `
    SELECT t.id, t.employee_id, t.project_id, t.status, t.total_hours, p.auto_approve
    FROM timesheets t
    JOIN projects p ON p.id = t.project_id
    WHERE t.id = $1 AND t.employee_id = $2
    FOR UPDATE OF t
  `, id, employeeID).Scan(&row.ID, &row.EmployeeID, &row.ProjectID, &row.Status, &row.TotalHours, &row.AutoApprove)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SubmissionRow{}, ErrNotFound
		}
		return SubmissionRow{}, err
	}
	return row, nil
}

func (t *submissionTx) CompleteSubmit(ctx context.Context, id int64, target string, now time.Time) (*Timesheet, error) {
	// Auto-approval records approved_at with a NULL approver: the
	// system, not a manager, approved it.
	row := t.tx.QueryRow(ctx, `
    UPDATE timesheets
    SET status = $2,
        submitted_at = $3,
        approved_by = NULL,
        approved_at = CASE WHEN $2 = $4 THEN $3 ELSE NULL END,
        rejected_by = NULL,
        rejected_at = NULL,
        rejection_reason = NULL,
        reminder_count = 0,
        last_reminder_at = NULL,
        escalated = false,
        updated_at = $3
    WHERE id = $1
    RETURNING `+timesheetColumns, id, target, now, StatusApproved)
	return scanTimesheet(row)
}

func (t *submissionTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *submissionTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
