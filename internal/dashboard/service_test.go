package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/repository"
)

// --- モック ---
// インターフェースを埋め込み、使うメソッドだけ実装する。

type mockProfileRepo struct {
	repository.ProfileRepository
	profile *model.Profile
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	return m.profile, nil
}

type mockTaskRepo struct {
	repository.TaskRepository
	unfinished int
	upcoming   []*model.Task
	countErr   error

	gotLimit int
}

func (m *mockTaskRepo) CountUnfinished(ctx context.Context) (int, error) {
	return m.unfinished, m.countErr
}

func (m *mockTaskRepo) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]*model.Task, error) {
	m.gotLimit = limit
	return m.upcoming, nil
}

type mockScheduleRepo struct {
	repository.ScheduleRepository
	gotDay int
}

func (m *mockScheduleRepo) ListByDay(ctx context.Context, day int) ([]*model.Schedule, error) {
	m.gotDay = day
	if day == 7 {
		return []*model.Schedule{{ID: 1, DayOfWeek: 7, StartTime: "08:00", EndTime: "09:40", Location: "R.201"}}, nil
	}
	return nil, nil
}

type mockCashRepo struct {
	repository.CashFlowRepository
}

func (m *mockCashRepo) Summary(ctx context.Context) (model.CashSummary, error) {
	return model.CashSummary{Income: 500000, Expense: 120000}, nil
}

var caller = &mutation.Caller{UserID: "u-1", Email: "ani@kampus.ac.id", Role: model.RoleUser}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestSummary(t *testing.T) {
	sunday := date(2024, 6, 2)
	tasks := &mockTaskRepo{
		unfinished: 5,
		upcoming: []*model.Task{
			{ID: 1, Title: "Laporan", DueDate: date(2024, 6, 1)},
			{ID: 2, Title: "Kuis", DueDate: date(2024, 6, 2)},
			{ID: 3, Title: "Makalah", DueDate: date(2024, 6, 6)},
		},
	}
	schedules := &mockScheduleRepo{}
	svc := NewService(&mockProfileRepo{profile: &model.Profile{ID: "u-1", FullName: "Ani Lestari"}}, tasks, schedules, &mockCashRepo{})

	got, err := svc.Summary(context.Background(), caller, sunday)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if got.Greeting != "Ani Lestari" {
		t.Errorf("Greeting = %q, want %q", got.Greeting, "Ani Lestari")
	}
	if got.UnfinishedTasks != 5 {
		t.Errorf("UnfinishedTasks = %d, want 5", got.UnfinishedTasks)
	}
	if schedules.gotDay != 7 || len(got.TodaySchedules) != 1 {
		t.Errorf("day = %d, schedules = %d, want Sunday as 7", schedules.gotDay, len(got.TodaySchedules))
	}
	if tasks.gotLimit != 3 {
		t.Errorf("limit = %d, want 3", tasks.gotLimit)
	}
	wantLabels := []string{"Terlewat", "Hari ini", "4 hari lagi"}
	for i, want := range wantLabels {
		if got.UpcomingTasks[i].DueLabel != want {
			t.Errorf("UpcomingTasks[%d].DueLabel = %q, want %q", i, got.UpcomingTasks[i].DueLabel, want)
		}
	}
	if got.Cash.Balance != 380000 {
		t.Errorf("Cash.Balance = %v, want 380000", got.Cash.Balance)
	}
}

func TestSummary_GreetingFallsBackToEmail(t *testing.T) {
	svc := NewService(&mockProfileRepo{}, &mockTaskRepo{}, &mockScheduleRepo{}, &mockCashRepo{})

	got, err := svc.Summary(context.Background(), caller, date(2024, 6, 3))
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got.Greeting != "ani@kampus.ac.id" {
		t.Errorf("Greeting = %q, want email", got.Greeting)
	}
	if got.TodaySchedules == nil || len(got.TodaySchedules) != 0 {
		t.Errorf("TodaySchedules = %v, want empty slice", got.TodaySchedules)
	}
}

func TestSummary_Unauthenticated(t *testing.T) {
	svc := NewService(&mockProfileRepo{}, &mockTaskRepo{}, &mockScheduleRepo{}, &mockCashRepo{})

	_, err := svc.Summary(context.Background(), nil, time.Now())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthenticated {
		t.Errorf("error = %v, want UNAUTHENTICATED", err)
	}
}

func TestSummary_StoreError(t *testing.T) {
	svc := NewService(&mockProfileRepo{}, &mockTaskRepo{countErr: errors.New("db down")}, &mockScheduleRepo{}, &mockCashRepo{})

	if _, err := svc.Summary(context.Background(), caller, time.Now()); err == nil {
		t.Error("Summary() error = nil, want error")
	}
}

func TestDueLabel(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-2, "Terlewat"},
		{0, "Hari ini"},
		{1, "Besok"},
		{10, "10 hari lagi"},
	}
	for _, tt := range tests {
		if got := DueLabel(tt.days); got != tt.want {
			t.Errorf("DueLabel(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestDaysLeft_IgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, 6, 2, 23, 59, 0, 0, time.UTC)
	due := time.Date(2024, 6, 3, 0, 1, 0, 0, time.UTC)
	if got := DaysLeft(today, due); got != 1 {
		t.Errorf("DaysLeft() = %d, want 1", got)
	}
}
