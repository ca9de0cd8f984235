package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"timetracker/internal/domain/timesheet"
)

type ProjectStore interface {
	GetProject(ctx context.Context, id int64) (*Project, error)
	UpdateProject(ctx context.Context, p Project) error
}

// DraftCleaner removes draft timesheets left behind on the old cadence
// when a project's period type changes.
type DraftCleaner interface {
	CleanupDuplicateDrafts(ctx context.Context, projectID int64) (int64, error)
}

type Service struct {
	Projects ProjectStore
	Drafts   DraftCleaner
}

func NewService(projects ProjectStore, drafts DraftCleaner) *Service {
	return &Service{Projects: projects, Drafts: drafts}
}

// UpdateProject applies project changes. A period-type change makes
// existing draft timesheets stale (their boundaries no longer match
// the cadence), so duplicates for the new boundaries are cleaned up.
func (s *Service) UpdateProject(ctx context.Context, updated Project) (*Project, error) {
	updated.Name = strings.TrimSpace(updated.Name)
	if updated.Name == "" {
		return nil, fmt.Errorf("%w: project name is required", timesheet.ErrValidation)
	}
	switch updated.PeriodType {
	case timesheet.PeriodWeekly, timesheet.PeriodBiMonthly, timesheet.PeriodMonthly:
	default:
		return nil, fmt.Errorf("%w: %q", timesheet.ErrInvalidCadence, updated.PeriodType)
	}

	current, err := s.Projects.GetProject(ctx, updated.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Projects.UpdateProject(ctx, updated); err != nil {
		return nil, err
	}

	if current.PeriodType != updated.PeriodType && s.Drafts != nil {
		removed, err := s.Drafts.CleanupDuplicateDrafts(ctx, updated.ID)
		if err != nil {
			slog.Warn("duplicate draft cleanup failed", "projectId", updated.ID, "err", err)
		} else if removed > 0 {
			slog.Info("period type change cleaned up drafts", "projectId", updated.ID, "removed", removed)
		}
	}
	return s.Projects.GetProject(ctx, updated.ID)
}
