package mutation

import (
	"fmt"

	"github.com/hitoshi/psga/internal/model"
)

// 既定の拒否メッセージ
const (
	MsgUnauthenticated = "Autentikasi diperlukan."
	MsgAdminOnly       = "Unauthorized: Admins only"
	MsgNotFound        = "Data tidak ditemukan."
)

// Denial は認可ゲートまたはリソース固有チェックによる拒否。
type Denial struct {
	Kind    Kind
	Message string
}

// Error はerrorインターフェースを実装する。
func (d *Denial) Error() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Deny は指定区分の拒否を生成する。
func Deny(kind Kind, message string) *Denial {
	return &Denial{Kind: kind, Message: message}
}

// Conflict は不変条件違反（リーダー重複など）の拒否を生成する。
func Conflict(message string) *Denial {
	return Deny(KindConflict, message)
}

// Gate はリソースごとのロール要件。
// Requireが空の場合はログインのみを要求する。
type Gate struct {
	Require                model.Role
	UnauthenticatedMessage string
	UnauthorizedMessage    string
}

// Authenticated はログイン済みであれば通すゲート。
func Authenticated() Gate {
	return Gate{}
}

// AdminOnly は管理者のみ通すゲート。messageが空の場合はMsgAdminOnlyを使う。
func AdminOnly(message string) Gate {
	if message == "" {
		message = MsgAdminOnly
	}
	return Gate{Require: model.RoleAdmin, UnauthorizedMessage: message}
}

// WithUnauthenticatedMessage は未ログイン時のメッセージを差し替えたゲートを返す。
func (g Gate) WithUnauthenticatedMessage(message string) Gate {
	g.UnauthenticatedMessage = message
	return g
}

// Check はcallerがゲートを通過できるかを判定する。通過できる場合はnilを返す。
func (g Gate) Check(caller *Caller) *Denial {
	if caller == nil || caller.UserID == "" {
		msg := g.UnauthenticatedMessage
		if msg == "" {
			msg = MsgUnauthenticated
		}
		return Deny(KindUnauthenticated, msg)
	}
	if g.Require != "" && caller.Role != g.Require {
		msg := g.UnauthorizedMessage
		if msg == "" {
			msg = MsgAdminOnly
		}
		return Deny(KindUnauthorized, msg)
	}
	return nil
}
