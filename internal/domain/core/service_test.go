package core

import (
	"context"
	"errors"
	"testing"

	"timetracker/internal/domain/timesheet"
)

type fakeProjectStore struct {
	project Project
	updated *Project
}

func (f *fakeProjectStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	if id != f.project.ID {
		return nil, timesheet.ErrNotFound
	}
	p := f.project
	if f.updated != nil {
		p = *f.updated
	}
	return &p, nil
}

func (f *fakeProjectStore) UpdateProject(ctx context.Context, p Project) error {
	if p.ID != f.project.ID {
		return timesheet.ErrNotFound
	}
	f.updated = &p
	return nil
}

type fakeCleaner struct {
	calls []int64
}

func (f *fakeCleaner) CleanupDuplicateDrafts(ctx context.Context, projectID int64) (int64, error) {
	f.calls = append(f.calls, projectID)
	return 1, nil
}

func TestUpdateProjectPeriodChangeCleansUpDrafts(t *testing.T) {
	store := &fakeProjectStore{project: Project{ID: 1, Name: "Atlas", PeriodType: timesheet.PeriodWeekly, Active: true}}
	cleaner := &fakeCleaner{}
	svc := NewService(store, cleaner)

	_, err := svc.UpdateProject(context.Background(), Project{ID: 1, Name: "Atlas", PeriodType: timesheet.PeriodMonthly, Active: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleaner.calls) != 1 || cleaner.calls[0] != 1 {
		t.Fatalf("expected one cleanup call for project 1, got %v", cleaner.calls)
	}
}

func TestUpdateProjectSameCadenceSkipsCleanup(t *testing.T) {
	store := &fakeProjectStore{project: Project{ID: 1, Name: "Atlas", PeriodType: timesheet.PeriodWeekly, Active: true}}
	cleaner := &fakeCleaner{}
	svc := NewService(store, cleaner)

	_, err := svc.UpdateProject(context.Background(), Project{ID: 1, Name: "Atlas Renamed", PeriodType: timesheet.PeriodWeekly, Active: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleaner.calls) != 0 {
		t.Fatalf("rename alone must not trigger cleanup, got %v", cleaner.calls)
	}
}

func TestUpdateProjectRejectsUnknownCadence(t *testing.T) {
	store := &fakeProjectStore{project: Project{ID: 1, Name: "Atlas", PeriodType: timesheet.PeriodWeekly, Active: true}}
	svc := NewService(store, &fakeCleaner{})

	_, err := svc.UpdateProject(context.Background(), Project{ID: 1, Name: "Atlas", PeriodType: "fortnightly", Active: true})
	if !errors.Is(err, timesheet.ErrInvalidCadence) {
		t.Fatalf("expected ErrInvalidCadence, got %v", err)
	}
}
