// Package model はドメインモデルを定義する。
package model

import "time"

// Role はプロフィールに付与される権限ロールを表す。
type Role string

const (
	// RoleAdmin は管理操作（スケジュール・キャッシュフロー・グループ）を行えるロール。
	RoleAdmin Role = "admin"
	// RoleUser は一般メンバーのロール。
	RoleUser Role = "user"
)

// Account はログイン用のアカウントを表す。
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile はアカウントに1対1で紐づく公開プロフィール。
type Profile struct {
	ID          string
	Email       string // accountsから結合した参照用の値
	FullName    string
	AvatarURL   string
	LinkedinURL string
	GithubURL   string
	Role        Role
	UpdatedAt   time.Time
}

// IsAdmin は管理者ロールかどうかを返す。
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Avatar はプロフィール画像のバイナリを表す。
type Avatar struct {
	UserID    string
	Data      []byte
	Mime      string
	UpdatedAt time.Time
}

// Member はメンバー選択肢として使う最小限のプロフィール。
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
