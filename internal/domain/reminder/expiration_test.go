package reminder

import (
	"context"
	"testing"
	"time"
)

type fakeExpStore struct {
	employees []ExpiringEmployee
}

func (f *fakeExpStore) ExpiringEmployees(ctx context.Context) ([]ExpiringEmployee, error) {
	return f.employees, nil
}

type fakeSettings struct {
	setting TrackerSetting
}

func (f *fakeSettings) TrackerSetting(ctx context.Context) (TrackerSetting, error) {
	return f.setting, nil
}

func newExpirationScheduler(setting TrackerSetting, employees []ExpiringEmployee, notify *fakeNotifier) *ExpirationScheduler {
	return &ExpirationScheduler{
		Settings: &fakeSettings{setting: setting},
		Store:    &fakeExpStore{employees: employees},
		Notify:   notify,
	}
}

func TestExpirationMonthlyWindow(t *testing.T) {
	// target 180 days, monthly: 5 months out fires, 7 months out does not.
	today := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	employees := []ExpiringEmployee{
		{ID: 1, Name: "Ana Soto", Email: "ana@example.com", EndDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Name: "Ben Okafor", Email: "ben@example.com", EndDate: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
	}
	notify := &fakeNotifier{}
	sched := newExpirationScheduler(TrackerSetting{TargetDays: 180, Recurring: FreqMonthly}, employees, notify)

	result, err := sched.RunOnce(context.Background(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sent != 1 {
		t.Fatalf("expected exactly one reminder, got %d", result.Sent)
	}
	if len(notify.sent) != 1 || notify.sent[0].recipients[0] != "ana@example.com" {
		t.Fatalf("expected the 5-months-out employee to be reminded, got %+v", notify.sent)
	}
}

func TestExpirationSkipsExpiredEmployees(t *testing.T) {
	today := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	employees := []ExpiringEmployee{
		{ID: 1, Name: "Ana Soto", Email: "ana@example.com", EndDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
	}
	notify := &fakeNotifier{}
	sched := newExpirationScheduler(TrackerSetting{TargetDays: 180, Recurring: FreqDaily}, employees, notify)

	result, err := sched.RunOnce(context.Background(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sent != 0 {
		t.Fatal("an already-expired end date must not be reminded")
	}
}

func TestExpirationWeeklyFiresOnSevenDayMultiples(t *testing.T) {
	today := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	employees := []ExpiringEmployee{
		{ID: 1, Name: "Ana Soto", Email: "ana@example.com", EndDate: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)}, // 14 days
		{ID: 2, Name: "Ben Okafor", Email: "ben@example.com", EndDate: time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC)}, // 15 days
	}
	notify := &fakeNotifier{}
	sched := newExpirationScheduler(TrackerSetting{TargetDays: 180, Recurring: FreqWeekly}, employees, notify)

	result, err := sched.RunOnce(context.Background(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sent != 1 || notify.sent[0].recipients[0] != "ana@example.com" {
		t.Fatalf("expected only the 14-day employee, got %+v", notify.sent)
	}
}

func TestExpirationDeliveryFailureIsFireAndForget(t *testing.T) {
	today := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	employees := []ExpiringEmployee{
		{ID: 1, Name: "Ana Soto", Email: "ana@example.com", EndDate: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)},
	}
	notify := &fakeNotifier{fail: true}
	sched := newExpirationScheduler(TrackerSetting{TargetDays: 180, Recurring: FreqDaily}, employees, notify)

	result, err := sched.RunOnce(context.Background(), today)
	if err != nil {
		t.Fatalf("delivery failure must not fail the run: %v", err)
	}
	if result.Failed != 1 || result.Sent != 0 {
		t.Fatalf("expected one failed delivery, got %+v", result)
	}
}

func TestTriggerPolicy(t *testing.T) {
	cases := []struct {
		frequency string
		days      int
		months    int
		fire      bool
	}{
		{FreqDaily, 13, 1, true},
		{FreqWeekly, 21, 1, true},
		{FreqWeekly, 22, 1, false},
		{FreqBiWeekly, 28, 1, true},
		{FreqBiWeekly, 21, 1, false},
		{FreqBiMonthly, 60, 2, true},
		{FreqBiMonthly, 90, 3, false},
		{FreqQuarterly, 90, 3, true},
		{FreqQuarterly, 120, 4, false},
		{FreqMonthly, 150, 5, true},
		{FreqMonthly, 200, 7, false},
		{FreqMonthly, 10, 0, false},
	}
	for _, c := range cases {
		if got := triggers(c.frequency, c.days, c.months); got != c.fire {
			t.Fatalf("triggers(%s, %d, %d) = %v, expected %v", c.frequency, c.days, c.months, got, c.fire)
		}
	}
}
