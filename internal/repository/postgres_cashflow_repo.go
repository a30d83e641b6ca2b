package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/psga/internal/model"
)

// PostgresCashFlowRepo はPostgreSQLを使用した入出金台帳リポジトリ。
type PostgresCashFlowRepo struct {
	db *sql.DB
}

// NewPostgresCashFlowRepo はPostgresCashFlowRepoを生成する。
func NewPostgresCashFlowRepo(db *sql.DB) *PostgresCashFlowRepo {
	return &PostgresCashFlowRepo{db: db}
}

// Create は取引を作成し、採番されたIDとcreated_atを設定する。
func (r *PostgresCashFlowRepo) Create(ctx context.Context, e *model.CashFlow) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cash_flow (description, amount, type, transaction_date, member_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		e.Description, e.Amount, string(e.Type), e.TransactionDate, e.MemberID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cash flow: %w", err)
	}
	return nil
}

// Update は指定IDの取引を更新する。存在しない場合はErrNotFoundを返す。
func (r *PostgresCashFlowRepo) Update(ctx context.Context, e *model.CashFlow) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cash_flow
		 SET description = $1, amount = $2, type = $3, transaction_date = $4, member_id = $5
		 WHERE id = $6`,
		e.Description, e.Amount, string(e.Type), e.TransactionDate, e.MemberID, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cash flow: %w", err)
	}
	return expectAffected(result)
}

// DeleteByID は指定IDの取引を削除する。存在しない場合はErrNotFoundを返す。
func (r *PostgresCashFlowRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cash_flow WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cash flow: %w", err)
	}
	return expectAffected(result)
}

// List は取引日の新しい順で全取引を返す。
func (r *PostgresCashFlowRepo) List(ctx context.Context) ([]*model.CashFlow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cf.id, cf.description, cf.amount, cf.type, cf.transaction_date,
		        cf.member_id, COALESCE(p.full_name, ''), cf.created_at
		 FROM cash_flow cf
		 LEFT JOIN profiles p ON p.id = cf.member_id
		 ORDER BY cf.transaction_date DESC, cf.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash flow: %w", err)
	}
	defer rows.Close()

	var entries []*model.CashFlow
	for rows.Next() {
		e := &model.CashFlow{}
		var kind string
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &kind, &e.TransactionDate, &e.MemberID, &e.MemberName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cash flow: %w", err)
		}
		e.Type = model.CashFlowType(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cash flow: %w", err)
	}
	return entries, nil
}

// Summary は収入・支出の合計と残高を返す。
func (r *PostgresCashFlowRepo) Summary(ctx context.Context) (model.CashSummary, error) {
	var income, expense float64
	err := r.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
		   COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		 FROM cash_flow`,
	).Scan(&income, &expense)
	if err != nil {
		return model.CashSummary{}, fmt.Errorf("failed to summarize cash flow: %w", err)
	}
	return model.NewCashSummary(income, expense), nil
}

// compile-time interface check
var _ CashFlowRepository = (*PostgresCashFlowRepo)(nil)
