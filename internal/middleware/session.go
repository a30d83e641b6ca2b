// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userIDContextKey = contextKey("user_id")
	callerContextKey = contextKey("caller")
)

// SessionResolver はセッションIDから利用者を解決する。
// auth.Serviceが実装する。
type SessionResolver interface {
	// ValidateSession は有効なセッションのユーザーIDを返す。無効な場合は空文字。
	ValidateSession(ctx context.Context, sessionID string) (string, error)
	// ResolveCaller はユーザーIDとプロフィールのroleからCallerを返す。
	ResolveCaller(ctx context.Context, userID string) (*mutation.Caller, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// ユーザーIDとCallerをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストには401を返す。
func NewSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			userID, err := resolver.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}
			if userID == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// プロフィールが消えたアカウントは未ログイン扱い
			caller, err := resolver.ResolveCaller(r.Context(), userID)
			if err != nil {
				slog.Error("failed to resolve caller",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if caller == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			annotateUserID(r.Context(), userID)
			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			ctx = context.WithValue(ctx, callerContextKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// CallerFromContext はリクエストコンテキストからCallerを取得する。未ログインならnil。
func CallerFromContext(ctx context.Context) *mutation.Caller {
	caller, _ := ctx.Value(callerContextKey).(*mutation.Caller)
	return caller
}

// ContextWithCaller はコンテキストにCallerとユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithCaller(ctx context.Context, caller *mutation.Caller) context.Context {
	ctx = context.WithValue(ctx, callerContextKey, caller)
	if caller != nil {
		ctx = context.WithValue(ctx, userIDContextKey, caller.UserID)
	}
	return ctx
}
