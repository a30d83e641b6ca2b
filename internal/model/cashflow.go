package model

import "time"

// CashFlowType は入出金の種別を表す。
type CashFlowType string

const (
	CashFlowIncome  CashFlowType = "income"
	CashFlowExpense CashFlowType = "expense"
)

// CashFlow は共有台帳の1取引を表す。
type CashFlow struct {
	ID              int64        `json:"id"`
	Description     string       `json:"description"`
	Amount          float64      `json:"amount"`
	Type            CashFlowType `json:"type"`
	TransactionDate time.Time    `json:"transaction_date"`
	MemberID        string       `json:"member_id"`
	MemberName      string       `json:"member_name,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// CashSummary は台帳の集計値。Balanceは常にIncome-Expenseから導出する。
type CashSummary struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// NewCashSummary は収入合計と支出合計から集計値を生成する。
func NewCashSummary(income, expense float64) CashSummary {
	return CashSummary{Income: income, Expense: expense, Balance: income - expense}
}
