// Package schedule は講義スケジュールのドメインロジックを提供する。
// 書き込みは管理者のみ。
package schedule

import (
	"context"
	"fmt"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/repository"
	"github.com/hitoshi/psga/internal/security"
	"github.com/hitoshi/psga/internal/validate"
)

const resource = "schedule"

// Input はスケジュール保存フォームの入力。idがあれば更新、なければ作成。
// 開始時刻が終了時刻より前かどうかは検証しない。
type Input struct {
	ID        *int64 `form:"id"`
	CourseID  int64  `form:"course_id" validate:"min=1"`
	DayOfWeek int    `form:"day_of_week" validate:"min=1,max=7"`
	StartTime string `form:"start_time" validate:"hhmm"`
	EndTime   string `form:"end_time" validate:"hhmm"`
	Location  string `form:"location" validate:"min=2"`
}

// FieldMessages はフィールドごとのエラーメッセージを返す。
func (Input) FieldMessages() validate.Messages {
	return validate.Messages{
		"course_id":   "Mata kuliah wajib dipilih.",
		"day_of_week": "Hari wajib dipilih.",
		"location":    "Lokasi minimal 2 karakter.",
	}
}

type deleteInput struct {
	ID int64 `form:"id" validate:"min=1"`
}

func (deleteInput) FieldMessages() validate.Messages {
	return validate.Messages{"id": "ID jadwal tidak valid."}
}

// Service はスケジュールのサービス層。
type Service struct {
	repo      repository.ScheduleRepository
	engine    *mutation.Engine
	validator *validate.Validator
	sanitizer *security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.ScheduleRepository,
	engine *mutation.Engine,
	validator *validate.Validator,
	sanitizer *security.TextSanitizer,
) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		validator: validator,
		sanitizer: sanitizer,
	}
}

// Save はスケジュールを作成または更新する。
func (s *Service) Save(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.Schedule] {
	fields = s.sanitizer.CleanFields(fields, "location", "start_time", "end_time")

	spec := mutation.Spec[Input, model.Schedule]{
		Resource: resource,
		Gate:     mutation.AdminOnly(""),
		Decode: func(fields map[string]string) (Input, *validate.FieldErrors) {
			return validate.Into[Input](s.validator, fields)
		},
		Plan: func(_ *mutation.Caller, in Input) mutation.Plan[model.Schedule] {
			sc := &model.Schedule{
				CourseID:  in.CourseID,
				DayOfWeek: in.DayOfWeek,
				StartTime: in.StartTime,
				EndTime:   in.EndTime,
				Location:  in.Location,
			}
			plan := mutation.Plan[model.Schedule]{
				Operation:     "create",
				Success:       "Jadwal berhasil dibuat.",
				FailurePrefix: "Gagal membuat jadwal",
				Dispatch: func(ctx context.Context) (*model.Schedule, error) {
					return sc, s.repo.Create(ctx, sc)
				},
				Views: views,
			}
			if in.ID != nil {
				sc.ID = *in.ID
				plan.Operation = "update"
				plan.Success = "Jadwal berhasil diperbarui."
				plan.FailurePrefix = "Gagal memperbarui jadwal"
				plan.Dispatch = func(ctx context.Context) (*model.Schedule, error) {
					return sc, s.repo.Update(ctx, sc)
				}
			}
			return plan
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, fields)
}

// Delete は指定IDのスケジュールを削除する。
func (s *Service) Delete(ctx context.Context, caller *mutation.Caller, id string) mutation.Result[model.Schedule] {
	spec := mutation.Spec[deleteInput, model.Schedule]{
		Resource: resource,
		Gate:     mutation.AdminOnly(""),
		Decode: func(fields map[string]string) (deleteInput, *validate.FieldErrors) {
			return validate.Into[deleteInput](s.validator, fields)
		},
		Plan: func(_ *mutation.Caller, in deleteInput) mutation.Plan[model.Schedule] {
			return mutation.Plan[model.Schedule]{
				Operation:     "delete",
				Success:       "Jadwal berhasil dihapus.",
				FailurePrefix: "Gagal menghapus jadwal",
				Dispatch: func(ctx context.Context) (*model.Schedule, error) {
					return nil, s.repo.DeleteByID(ctx, in.ID)
				},
				Views: views,
			}
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, map[string]string{"id": id})
}

// List は全スケジュールを曜日・開始時刻順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Schedule, error) {
	schedules, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("スケジュール一覧の取得に失敗しました: %w", err)
	}
	return schedules, nil
}

// ListByDay は指定曜日（1〜7）のスケジュールを返す。範囲外の曜日は空を返す。
func (s *Service) ListByDay(ctx context.Context, dayOfWeek int) ([]*model.Schedule, error) {
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return []*model.Schedule{}, nil
	}
	schedules, err := s.repo.ListByDay(ctx, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	return schedules, nil
}

func views(*model.Schedule) []string {
	return []string{"/schedules", "/dashboard"}
}
