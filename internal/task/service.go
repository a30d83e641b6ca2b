// Package task は課題の登録・更新・削除と一覧のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/repository"
	"github.com/hitoshi/psga/internal/security"
	"github.com/hitoshi/psga/internal/validate"
)

const resource = "task"

// 書き込み成功時に無効化するビュー
var views = []string{"/tasks", "/dashboard"}

// Input はタスク保存フォームの入力。idがあれば更新、なければ作成。
type Input struct {
	ID          *int64           `form:"id"`
	Title       string           `form:"title" validate:"min=3"`
	Description string           `form:"description"`
	DueDate     time.Time        `form:"due_date" validate:"required"`
	Status      model.TaskStatus `form:"status" validate:"oneof=todo in_progress done"`
	CourseID    int64            `form:"course_id" validate:"min=1"`
}

// FieldMessages はフィールドごとのエラーメッセージを返す。
func (Input) FieldMessages() validate.Messages {
	return validate.Messages{
		"title":            "Judul minimal 3 karakter.",
		"due_date":         "Tanggal jatuh tempo wajib diisi.",
		"status":           "Status tidak valid.",
		"course_id":        "Mata kuliah wajib dipilih.",
		"course_id.coerce": "Mata kuliah wajib dipilih.",
	}
}

type deleteInput struct {
	ID int64 `form:"id" validate:"min=1"`
}

func (deleteInput) FieldMessages() validate.Messages {
	return validate.Messages{"id": "ID tugas tidak valid."}
}

// Service はタスクのサービス層。ログイン済みであれば誰でも書き込める。
type Service struct {
	repo      repository.TaskRepository
	engine    *mutation.Engine
	validator *validate.Validator
	sanitizer *security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.TaskRepository,
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

// Save はタスクを作成または更新する。
func (s *Service) Save(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.Task] {
	fields = s.sanitizer.CleanFields(fields, "title", "description")
	return mutation.Run(ctx, s.engine, s.saveSpec(), caller, fields)
}

func (s *Service) saveSpec() mutation.Spec[Input, model.Task] {
	return mutation.Spec[Input, model.Task]{
		Resource: resource,
		Gate:     mutation.Authenticated(),
		Decode: func(fields map[string]string) (Input, *validate.FieldErrors) {
			return validate.Into[Input](s.validator, fields)
		},
		Plan: func(_ *mutation.Caller, in Input) mutation.Plan[model.Task] {
			t := &model.Task{
				Title:    in.Title,
				DueDate:  in.DueDate,
				Status:   in.Status,
				CourseID: in.CourseID,
			}
			if in.Description != "" {
				desc := in.Description
				t.Description = &desc
			}

			if in.ID != nil {
				t.ID = *in.ID
				return mutation.Plan[model.Task]{
					Operation:     "update",
					Success:       "Tugas berhasil diperbarui.",
					FailurePrefix: "Gagal memperbarui tugas",
					Dispatch: func(ctx context.Context) (*model.Task, error) {
						return t, s.repo.Update(ctx, t)
					},
					Views: staticViews,
				}
			}
			return mutation.Plan[model.Task]{
				Operation:     "create",
				Success:       "Tugas berhasil dibuat.",
				FailurePrefix: "Gagal membuat tugas",
				Dispatch: func(ctx context.Context) (*model.Task, error) {
					return t, s.repo.Create(ctx, t)
				},
				Views: staticViews,
			}
		},
	}
}

// Delete は指定IDのタスクを削除する。
func (s *Service) Delete(ctx context.Context, caller *mutation.Caller, id string) mutation.Result[model.Task] {
	spec := mutation.Spec[deleteInput, model.Task]{
		Resource: resource,
		Gate:     mutation.Authenticated(),
		Decode: func(fields map[string]string) (deleteInput, *validate.FieldErrors) {
			return validate.Into[deleteInput](s.validator, fields)
		},
		Plan: func(_ *mutation.Caller, in deleteInput) mutation.Plan[model.Task] {
			return mutation.Plan[model.Task]{
				Operation:     "delete",
				Success:       "Tugas berhasil dihapus.",
				FailurePrefix: "Gagal menghapus tugas",
				Dispatch: func(ctx context.Context) (*model.Task, error) {
					return nil, s.repo.DeleteByID(ctx, in.ID)
				},
				Views: staticViews,
			}
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, map[string]string{"id": id})
}

// List は全タスクを期限順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

func staticViews(*model.Task) []string {
	return views
}
