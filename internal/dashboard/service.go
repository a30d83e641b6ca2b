// Package dashboard はログイン直後に表示する活動サマリーを組み立てる。
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/repository"
)

// upcomingLimit はサマリーに載せる未完了タスクの件数。
const upcomingLimit = 3

// UpcomingTask は期限までの残り日数ラベル付きのタスク。
type UpcomingTask struct {
	*model.Task
	DaysLeft int    `json:"days_left"`
	DueLabel string `json:"due_label"`
}

// Summary はダッシュボードの表示内容。
type Summary struct {
	Greeting        string            `json:"greeting"`
	UnfinishedTasks int               `json:"unfinished_tasks"`
	TodaySchedules  []*model.Schedule `json:"today_schedules"`
	UpcomingTasks   []UpcomingTask    `json:"upcoming_tasks"`
	Cash            model.CashSummary `json:"cash"`
}

// Service はダッシュボードの読み取り専用サービス。
type Service struct {
	profileRepo  repository.ProfileRepository
	taskRepo     repository.TaskRepository
	scheduleRepo repository.ScheduleRepository
	cashRepo     repository.CashFlowRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	taskRepo repository.TaskRepository,
	scheduleRepo repository.ScheduleRepository,
	cashRepo repository.CashFlowRepository,
) *Service {
	return &Service{
		profileRepo:  profileRepo,
		taskRepo:     taskRepo,
		scheduleRepo: scheduleRepo,
		cashRepo:     cashRepo,
	}
}

// Summary はtodayを基準にサマリーを返す。
// 挨拶名はプロフィールの氏名、未設定ならメールアドレスを使う。
func (s *Service) Summary(ctx context.Context, caller *mutation.Caller, today time.Time) (*Summary, error) {
	if caller == nil || caller.UserID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	greeting := caller.Email
	p, err := s.profileRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p != nil && p.FullName != "" {
		greeting = p.FullName
	}

	unfinished, err := s.taskRepo.CountUnfinished(ctx)
	if err != nil {
		return nil, err
	}

	schedules, err := s.scheduleRepo.ListByDay(ctx, model.ISOWeekday(today.Weekday()))
	if err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = []*model.Schedule{}
	}

	// 期限切れの未完了タスクも含める
	tasks, err := s.taskRepo.ListUpcoming(ctx, time.Time{}, upcomingLimit)
	if err != nil {
		return nil, err
	}
	upcoming := make([]UpcomingTask, 0, len(tasks))
	for _, t := range tasks {
		days := DaysLeft(today, t.DueDate)
		upcoming = append(upcoming, UpcomingTask{Task: t, DaysLeft: days, DueLabel: DueLabel(days)})
	}

	cash, err := s.cashRepo.Summary(ctx)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Greeting:        greeting,
		UnfinishedTasks: unfinished,
		TodaySchedules:  schedules,
		UpcomingTasks:   upcoming,
		Cash:            model.NewCashSummary(cash.Income, cash.Expense),
	}, nil
}

// DaysLeft はtodayからdueまでの日数を暦日単位で返す。過去なら負数。
func DaysLeft(today, due time.Time) int {
	y1, m1, d1 := today.Date()
	y2, m2, d2 := due.Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// DueLabel は残り日数の表示ラベルを返す。
func DueLabel(days int) string {
	switch {
	case days < 0:
		return "Terlewat"
	case days == 0:
		return "Hari ini"
	case days == 1:
		return "Besok"
	default:
		return fmt.Sprintf("%d hari lagi", days)
	}
}
