package reminder

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store backs both schedulers with the shared Postgres pool.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) OutstandingTimesheets(ctx context.Context, endedBy time.Time) ([]Candidate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.id, t.employee_id, t.project_id, t.status, t.period_start, t.period_end,
           t.reminder_count, t.last_reminder_at, t.escalated, p.auto_approve
    FROM timesheets t
    JOIN projects p ON p.id = t.project_id
    WHERE t.status IN ('draft', 'pending')
      AND t.period_end <= $1
    ORDER BY t.id
  `, endedBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.ProjectID, &c.Status, &c.PeriodStart, &c.PeriodEnd,
			&c.ReminderCount, &c.LastReminderAt, &c.Escalated, &c.AutoApprove); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) MarkReminded(ctx context.Context, id int64, now time.Time, escalate bool) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE timesheets
    SET reminder_count = reminder_count + 1,
        last_reminder_at = $2,
        escalated = escalated OR $3,
        updated_at = now()
    WHERE id = $1
  `, id, now, escalate)
	return err
}

func (s *Store) ExpiringEmployees(ctx context.Context) ([]ExpiringEmployee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.first_name || ' ' || e.last_name, e.email, e.end_date
    FROM employees e
    WHERE e.active AND e.end_date IS NOT NULL
    ORDER BY e.id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExpiringEmployee
	for rows.Next() {
		var emp ExpiringEmployee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.EndDate); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// TrackerSetting returns the singleton row, creating the default on
// first access so the scheduler never runs without a policy.
func (s *Store) TrackerSetting(ctx context.Context) (TrackerSetting, error) {
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO tracker_settings (id, target_days, recurring)
    VALUES (1, 180, 'monthly')
    ON CONFLICT (id) DO NOTHING
  `); err != nil {
		return TrackerSetting{}, err
	}
	var setting TrackerSetting
	err := s.DB.QueryRow(ctx, `
    SELECT target_days, recurring FROM tracker_settings WHERE id = 1
  `).Scan(&setting.TargetDays, &setting.Recurring)
	return setting, err
}

func (s *Store) SaveTrackerSetting(ctx context.Context, setting TrackerSetting) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO tracker_settings (id, target_days, recurring)
    VALUES (1, $1, $2)
    ON CONFLICT (id) DO UPDATE
    SET target_days = EXCLUDED.target_days,
        recurring = EXCLUDED.recurring,
        updated_at = now()
  `, setting.TargetDays, setting.Recurring)
	return err
}
