package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Directory exposes the read-only project/employee lookups the
// timesheet workflow needs. Implemented by the core store.
type Directory interface {
	ProjectInfo(ctx context.Context, projectID int64) (name, periodType string, autoApprove bool, err error)
	EmployeeEmail(ctx context.Context, employeeID int64) (string, error)
	ManagerEmails(ctx context.Context, projectID int64) ([]string, error)
}

// Notifier is the best-effort notification sink. Deliver reports
// whether the transport accepted the message; it never fails the
// triggering operation.
type Notifier interface {
	Deliver(ctx context.Context, recipients []string, subject, htmlBody string) bool
}

// Recorder appends immutable change-log records. Actor 0 means the
// system acted on its own (auto-approval).
type Recorder interface {
	Record(ctx context.Context, actorID int64, action, entityType string, entityID int64, before, after any) error
}

type Service struct {
	Store  StoreAPI
	Dir    Directory
	Notify Notifier
	Audit  Recorder
	Now    func() time.Time
}

func NewService(store StoreAPI, dir Directory, notify Notifier, auditSvc Recorder) *Service {
	return &Service{Store: store, Dir: dir, Notify: notify, Audit: auditSvc, Now: time.Now}
}

// CurrentForProject returns the timesheet covering the reference date
// for this employee and project, creating an empty draft on first
// access. Period boundaries come from the project's cadence.
func (s *Service) CurrentForProject(ctx context.Context, employeeID, projectID int64, ref time.Time) (*Timesheet, error) {
	_, periodType, _, err := s.Dir.ProjectInfo(ctx, projectID)
	if err != nil {
		return nil, err
	}
	start, end, err := PeriodFor(periodType, ref)
	if err != nil {
		return nil, err
	}

	ts, err := s.Store.FindByPeriod(ctx, employeeID, projectID, start, end)
	if err == nil {
		return ts, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	return s.Store.Create(ctx, &Timesheet{
		EmployeeID:  employeeID,
		ProjectID:   projectID,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      StatusDraft,
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*Timesheet, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) GetForEmployee(ctx context.Context, id, employeeID int64) (*Timesheet, error) {
	return s.Store.GetForEmployee(ctx, id, employeeID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Timesheet, error) {
	return s.Store.List(ctx, filter)
}

// UpdateEntries replaces timesheet content. Allowed only while the
// timesheet is editable (draft or rejected); the cached total is
// recomputed and reminder metadata resets on every content write.
func (s *Service) UpdateEntries(ctx context.Context, id, employeeID int64, entries []DailyEntry) (*Timesheet, error) {
	ts, err := s.Store.GetForEmployee(ctx, id, employeeID)
	if err != nil {
		return nil, err
	}
	if !Editable(ts.Status) {
		return nil, &InvalidStateError{Op: "edited", Status: ts.Status}
	}

	normalized, total, err := NormalizeEntries(entries, ts.PeriodStart, ts.PeriodEnd)
	if err != nil {
		return nil, err
	}

	updated, err := s.Store.UpdateEntries(ctx, id, normalized, total, s.Now())
	if errors.Is(err, ErrNotFound) {
		// The conditional write matched nothing: a concurrent submit
		// moved the timesheet out of an editable status after the read.
		return nil, s.transitionFailure(ctx, id, "edited")
	}
	if err != nil {
		return nil, err
	}
	s.record(ctx, employeeID, "timesheet.entries.update", updated.ID, ts, updated)
	return updated, nil
}

// Submit moves a draft or rejected timesheet into pending (or straight
// to approved when the project auto-approves). The whole transition
// runs in one transaction with the row locked, so a concurrent submit
// of the same timesheet observes the committed status and fails with
// InvalidStateError instead of writing twice.
func (s *Service) Submit(ctx context.Context, id, employeeID int64) (*Timesheet, error) {
	uow, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin submission: %w", err)
	}

	row, err := uow.LockForSubmit(ctx, id, employeeID)
	if err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}
	if !Submittable(row.Status) {
		_ = uow.Rollback(ctx)
		return nil, &InvalidStateError{Op: "submitted", Status: row.Status}
	}
	if row.TotalHours <= 0 {
		_ = uow.Rollback(ctx)
		return nil, ErrEmptySubmission
	}

	target := StatusPending
	if row.AutoApprove {
		target = StatusApproved
	}

	updated, err := uow.CompleteSubmit(ctx, id, target, s.Now())
	if err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit submission: %w", err)
	}

	// Post-commit side effects are best-effort and never undo the
	// committed transition.
	s.record(ctx, employeeID, "timesheet.submit", updated.ID, row, updated)
	s.notifyAfterSubmit(ctx, updated)

	return updated, nil
}

// Approve moves a pending timesheet to approved on behalf of a
// manager. It is a single conditional update; no row lock is needed
// because the status predicate makes concurrent approvals lose cleanly.
func (s *Service) Approve(ctx context.Context, id, approverID int64) (*Timesheet, error) {
	ok, err := s.Store.Approve(ctx, id, approverID, s.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailure(ctx, id, "approved")
	}

	updated, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, approverID, "timesheet.approve", updated.ID, nil, updated)
	s.notifyEmployee(ctx, updated, "Timesheet approved",
		fmt.Sprintf("Your timesheet for %s – %s has been approved.",
			updated.PeriodStart.Format(dateLayout), updated.PeriodEnd.Format(dateLayout)))
	return updated, nil
}

// Reject moves a pending timesheet back to rejected. A non-empty
// reason is required so the employee knows what to fix.
func (s *Service) Reject(ctx context.Context, id, rejecterID int64, reason string) (*Timesheet, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("rejection reason is required")
	}

	ok, err := s.Store.Reject(ctx, id, rejecterID, reason, s.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailure(ctx, id, "rejected")
	}

	updated, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, rejecterID, "timesheet.reject", updated.ID, nil, updated)
	s.notifyEmployee(ctx, updated, "Timesheet rejected",
		fmt.Sprintf("Your timesheet for %s – %s was rejected: %s",
			updated.PeriodStart.Format(dateLayout), updated.PeriodEnd.Format(dateLayout), reason))
	return updated, nil
}

// CleanupDuplicateDrafts removes duplicate drafts after a project
// period-type change, keeping the oldest row per period.
func (s *Service) CleanupDuplicateDrafts(ctx context.Context, projectID int64) (int64, error) {
	removed, err := s.Store.DeleteDuplicateDrafts(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("removed duplicate draft timesheets", "projectId", projectID, "count", removed)
	}
	return removed, nil
}

// transitionFailure turns a zero-row conditional update into the right
// error: the row is either missing or not pending.
func (s *Service) transitionFailure(ctx context.Context, id int64, op string) error {
	status, err := s.Store.StatusOf(ctx, id)
	if err != nil {
		return err
	}
	return &InvalidStateError{Op: op, Status: status}
}

func (s *Service) notifyAfterSubmit(ctx context.Context, ts *Timesheet) {
	if s.Notify == nil {
		return
	}
	period := fmt.Sprintf("%s – %s", ts.PeriodStart.Format(dateLayout), ts.PeriodEnd.Format(dateLayout))

	if ts.Status == StatusApproved {
		s.notifyEmployee(ctx, ts, "Timesheet approved",
			fmt.Sprintf("Your timesheet for %s was submitted and automatically approved.", period))
		return
	}

	managers, err := s.Dir.ManagerEmails(ctx, ts.ProjectID)
	if err != nil {
		slog.Warn("manager lookup for submit notification failed", "timesheetId", ts.ID, "err", err)
		return
	}
	if len(managers) == 0 {
		return
	}
	if !s.Notify.Deliver(ctx, managers, "Timesheet awaiting approval",
		fmt.Sprintf("A timesheet for %s was submitted and is awaiting your approval.", period)) {
		slog.Warn("submit notification not delivered", "timesheetId", ts.ID)
	}
}

func (s *Service) notifyEmployee(ctx context.Context, ts *Timesheet, subject, body string) {
	if s.Notify == nil {
		return
	}
	email, err := s.Dir.EmployeeEmail(ctx, ts.EmployeeID)
	if err != nil || email == "" {
		slog.Warn("employee email lookup failed", "employeeId", ts.EmployeeID, "err", err)
		return
	}
	if !s.Notify.Deliver(ctx, []string{email}, subject, body) {
		slog.Warn("employee notification not delivered", "timesheetId", ts.ID, "subject", subject)
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, before, after any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actorID, action, "timesheet", entityID, before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
