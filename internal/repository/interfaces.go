// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/psga/internal/model"
)

// AccountRepository はログインアカウントの永続化インターフェース。
type AccountRepository interface {
	// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// CreateWithProfile はアカウントとプロフィールを同一トランザクションで作成する。
	CreateWithProfile(ctx context.Context, account *model.Account, profile *model.Profile) error
}

// ProfileRepository はプロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// Update は氏名とSNSリンクを更新する。
	Update(ctx context.Context, profile *model.Profile) error

	// ListMembers は全メンバーを氏名順で返す。
	ListMembers(ctx context.Context) ([]model.Member, error)

	// UpdateAvatar はアバター画像と公開URLを更新する。
	UpdateAvatar(ctx context.Context, avatar *model.Avatar, avatarURL string) error

	// FindAvatar はアバター画像を取得する。未設定の場合はnilを返す。
	FindAvatar(ctx context.Context, userID string) (*model.Avatar, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は有効期限を過ぎたセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// CourseRepository は科目マスタの参照インターフェース。
type CourseRepository interface {
	// List は全科目を名前順で返す。
	List(ctx context.Context) ([]model.Course, error)
}

// TaskRepository はタスクの永続化インターフェース。
type TaskRepository interface {
	// Create はタスクを作成し、採番されたIDとcreated_atを設定する。
	Create(ctx context.Context, task *model.Task) error
	// Update は指定IDのタスクを更新する。存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, task *model.Task) error
	// DeleteByID は指定IDのタスクを削除する。存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id int64) error
	// List は全タスクを期限順で返す。
	List(ctx context.Context) ([]*model.Task, error)
	// CountUnfinished はstatusがdone以外のタスク数を返す。
	CountUnfinished(ctx context.Context) (int, error)
	// ListUpcoming はfrom以降が期限の未完了タスクを期限順にlimit件返す。
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]*model.Task, error)
}

// ScheduleRepository は講義スケジュールの永続化インターフェース。
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	Update(ctx context.Context, schedule *model.Schedule) error
	DeleteByID(ctx context.Context, id int64) error
	// List は全スケジュールを曜日・開始時刻順で返す。
	List(ctx context.Context) ([]*model.Schedule, error)
	// ListByDay は指定曜日（1〜7）のスケジュールを開始時刻順で返す。
	ListByDay(ctx context.Context, dayOfWeek int) ([]*model.Schedule, error)
}

// CashFlowRepository は入出金台帳の永続化インターフェース。
type CashFlowRepository interface {
	Create(ctx context.Context, entry *model.CashFlow) error
	Update(ctx context.Context, entry *model.CashFlow) error
	DeleteByID(ctx context.Context, id int64) error
	// List は取引日の新しい順で全取引を返す。メンバー名を結合する。
	List(ctx context.Context) ([]*model.CashFlow, error)
	// Summary は収入・支出の合計と残高を返す。
	Summary(ctx context.Context) (model.CashSummary, error)
}

// GroupRepository はグループの永続化インターフェース。
type GroupRepository interface {
	// CreateWithLeader はグループと作成者のleader所属を同一トランザクションで作成する。
	CreateWithLeader(ctx context.Context, group *model.Group) error
	// FindByID は科目名付きでグループを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Group, error)
	// ListByUserID はユーザーが所属するグループを返す。
	ListByUserID(ctx context.Context, userID string) ([]model.Membership, error)
}

// GroupMemberRepository はグループ所属の永続化インターフェース。
type GroupMemberRepository interface {
	// Find は所属を取得する。見つからない場合はnilを返す。
	Find(ctx context.Context, groupID int64, userID string) (*model.GroupMember, error)
	// FindLeader はグループのleaderを取得する。いない場合はnilを返す。
	FindLeader(ctx context.Context, groupID int64) (*model.GroupMember, error)
	// Add は所属を追加する。重複・leader重複はErrConflictを返す。
	Add(ctx context.Context, member *model.GroupMember) error
	// UpdateRole は役割を変更する。leader重複はErrConflict、所属なしはErrNotFoundを返す。
	UpdateRole(ctx context.Context, groupID int64, userID string, role model.MemberRole) error
	// Remove は所属を削除する。所属なしはErrNotFoundを返す。
	Remove(ctx context.Context, groupID int64, userID string) error
	// ListByGroupID はメンバーを役割順（leaderが先）で返す。
	ListByGroupID(ctx context.Context, groupID int64) ([]*model.GroupMember, error)
}
