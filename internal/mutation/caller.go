// Package mutation は検証・認可付きの書き込みパイプラインを提供する。
//
// 1回の呼び出しは 認可ゲート → スキーマ検証 → リソース固有チェック → 書き込み →
// ビュー無効化 → 結果報告 の順に進み、どの段で止まっても Result を返す。
package mutation

import "github.com/hitoshi/psga/internal/model"

// Caller は書き込みを要求した利用者。エントリポイントごとに明示的に渡す。
// nilは未ログインを表す。
type Caller struct {
	UserID string
	Email  string
	Role   model.Role
}

// IsAdmin は管理者ロールかどうかを返す。
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == model.RoleAdmin
}
