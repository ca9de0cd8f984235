package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timetracker/internal/domain/timesheet"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
  id, user_id, first_name, last_name, email, active, start_date, end_date, created_at, updated_at`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.Active, &emp.StartDate, &emp.EndDate, &emp.CreatedAt, &emp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timesheet.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE id = $1
  `, id))
}

func (s *Store) GetEmployeeByUserID(ctx context.Context, userID int64) (*Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE user_id = $1
  `, userID))
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    ORDER BY last_name, first_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	var p Project
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, period_type, auto_approve, active, created_at, updated_at
    FROM projects
    WHERE id = $1
  `, id).Scan(&p.ID, &p.Name, &p.PeriodType, &p.AutoApprove, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timesheet.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, period_type, auto_approve, active, created_at, updated_at
    FROM projects
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.PeriodType, &p.AutoApprove, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p Project) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE projects
    SET name = $1, period_type = $2, auto_approve = $3, active = $4, updated_at = now()
    WHERE id = $5
  `, p.Name, p.PeriodType, p.AutoApprove, p.Active, p.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return timesheet.ErrNotFound
	}
	return nil
}

// ProjectInfo, EmployeeEmail and ManagerEmails satisfy the lookup
// interfaces of the timesheet and reminder packages.

func (s *Store) ProjectInfo(ctx context.Context, projectID int64) (string, string, bool, error) {
	var name, periodType string
	var autoApprove bool
	err := s.DB.QueryRow(ctx, `
    SELECT name, period_type, auto_approve
    FROM projects
    WHERE id = $1 AND active
  `, projectID).Scan(&name, &periodType, &autoApprove)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", false, timesheet.ErrNotFound
	}
	if err != nil {
		return "", "", false, err
	}
	return name, periodType, autoApprove, nil
}

func (s *Store) EmployeeEmail(ctx context.Context, employeeID int64) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, `
    SELECT email FROM employees WHERE id = $1
  `, employeeID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", timesheet.ErrNotFound
	}
	return email, err
}

func (s *Store) ManagerEmails(ctx context.Context, projectID int64) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.email
    FROM project_managers pm
    JOIN employees e ON e.id = pm.employee_id
    WHERE pm.project_id = $1 AND e.active
    ORDER BY e.email
  `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (s *Store) IsManagerOf(ctx context.Context, employeeID, projectID int64) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM project_managers
    WHERE project_id = $1 AND employee_id = $2
  `, projectID, employeeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApprovedHoursByProject aggregates approved timesheet hours per
// project for the reporting endpoint. Zero-valued from/to leave the
// range unbounded on that side; the bounds compare against period_end.
func (s *Store) ApprovedHoursByProject(ctx context.Context, from, to time.Time) ([]ProjectHours, error) {
	join := "t.project_id = p.id AND t.status = 'approved'"
	args := []any{}
	if !from.IsZero() {
		args = append(args, from)
		join += fmt.Sprintf(" AND t.period_end >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		join += fmt.Sprintf(" AND t.period_end <= $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.name, COUNT(t.id), COALESCE(SUM(t.total_hours), 0)
    FROM projects p
    LEFT JOIN timesheets t ON `+join+`
    GROUP BY p.id, p.name
    ORDER BY p.name
  `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectHours
	for rows.Next() {
		var ph ProjectHours
		if err := rows.Scan(&ph.ProjectID, &ph.ProjectName, &ph.Timesheets, &ph.TotalHours); err != nil {
			return nil, err
		}
		out = append(out, ph)
	}
	return out, rows.Err()
}
