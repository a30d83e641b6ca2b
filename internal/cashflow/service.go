// Package cashflow は共有台帳（入出金）のドメインロジックを提供する。
package cashflow

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

const (
	resource = "cashflow"

	msgNotAuthenticated = "Not authenticated"
)

// gate は台帳の書き込みを管理者に限定する。
var gate = mutation.AdminOnly(mutation.MsgAdminOnly).WithUnauthenticatedMessage(msgNotAuthenticated)

// Input は取引保存フォームの入力。idがあれば更新、なければ作成。
type Input struct {
	ID              *int64             `form:"id"`
	Description     string             `form:"description" validate:"min=3"`
	Amount          float64            `form:"amount" validate:"finite,gt=0,lt=1000000000000"`
	Type            model.CashFlowType `form:"type" validate:"oneof=income expense"`
	TransactionDate time.Time          `form:"transaction_date" validate:"required"`
	MemberID        string             `form:"member_id" validate:"uuid"`
}

// FieldMessages はフィールドごとのエラーメッセージを返す。
func (Input) FieldMessages() validate.Messages {
	return validate.Messages{
		"description":      "Deskripsi minimal 3 karakter",
		"amount":           "Jumlah harus angka positif",
		"type":             "Tipe transaksi tidak valid.",
		"transaction_date": "Tanggal transaksi tidak valid.",
		"member_id":        "Member tidak valid",
	}
}

type deleteInput struct {
	ID int64 `form:"id" validate:"min=1"`
}

func (deleteInput) FieldMessages() validate.Messages {
	return validate.Messages{"id": "ID transaksi tidak valid."}
}

// Service は台帳のサービス層。
type Service struct {
	repo      repository.CashFlowRepository
	engine    *mutation.Engine
	validator *validate.Validator
	sanitizer *security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.CashFlowRepository,
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

// Save は取引を作成または更新する。
func (s *Service) Save(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.CashFlow] {
	fields = s.sanitizer.CleanFields(fields, "description")

	spec := mutation.Spec[Input, model.CashFlow]{
		Resource: resource,
		Gate:     gate,
		Decode: func(fields map[string]string) (Input, *validate.FieldErrors) {
			return validate.Into[Input](s.validator, validate.LowerFields(fields, "member_id"))
		},
		Plan: func(_ *mutation.Caller, in Input) mutation.Plan[model.CashFlow] {
			entry := &model.CashFlow{
				Description:     in.Description,
				Amount:          in.Amount,
				Type:            in.Type,
				TransactionDate: in.TransactionDate,
				MemberID:        in.MemberID,
			}
			plan := mutation.Plan[model.CashFlow]{
				Operation:     "create",
				Success:       "Transaksi berhasil disimpan.",
				FailurePrefix: "Gagal menyimpan transaksi",
				Dispatch: func(ctx context.Context) (*model.CashFlow, error) {
					return entry, s.repo.Create(ctx, entry)
				},
				Views: views,
			}
			if in.ID != nil {
				entry.ID = *in.ID
				plan.Operation = "update"
				plan.Dispatch = func(ctx context.Context) (*model.CashFlow, error) {
					return entry, s.repo.Update(ctx, entry)
				}
			}
			return plan
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, fields)
}

// Delete は指定IDの取引を削除する。
func (s *Service) Delete(ctx context.Context, caller *mutation.Caller, id string) mutation.Result[model.CashFlow] {
	spec := mutation.Spec[deleteInput, model.CashFlow]{
		Resource: resource,
		Gate:     gate,
		Decode: func(fields map[string]string) (deleteInput, *validate.FieldErrors) {
			return validate.Into[deleteInput](s.validator, fields)
		},
		Plan: func(_ *mutation.Caller, in deleteInput) mutation.Plan[model.CashFlow] {
			return mutation.Plan[model.CashFlow]{
				Operation:     "delete",
				Success:       "Transaksi berhasil dihapus.",
				FailurePrefix: "Gagal menghapus transaksi",
				Dispatch: func(ctx context.Context) (*model.CashFlow, error) {
					return nil, s.repo.DeleteByID(ctx, in.ID)
				},
				Views: views,
			}
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, map[string]string{"id": id})
}

// List は取引日の新しい順で全取引を返す。
func (s *Service) List(ctx context.Context) ([]*model.CashFlow, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("取引一覧の取得に失敗しました: %w", err)
	}
	return entries, nil
}

// Summary は収入・支出の合計と残高を返す。
func (s *Service) Summary(ctx context.Context) (model.CashSummary, error) {
	sum, err := s.repo.Summary(ctx)
	if err != nil {
		return model.CashSummary{}, fmt.Errorf("集計の取得に失敗しました: %w", err)
	}
	return model.NewCashSummary(sum.Income, sum.Expense), nil
}

func views(*model.CashFlow) []string {
	return []string{"/cashflow", "/dashboard"}
}
