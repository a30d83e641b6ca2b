package mutation

import "github.com/hitoshi/psga/internal/validate"

// Status は利用者向けの結果区分。
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusInvalid Status = "invalid"
)

// Kind は失敗理由の内部区分。HTTPステータスの決定とメトリクスに使う。
type Kind string

const (
	KindOK              Kind = "ok"
	KindInvalid         Kind = "invalid"
	KindUnauthenticated Kind = "unauthenticated"
	KindUnauthorized    Kind = "unauthorized"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindStore           Kind = "store"
	KindPartial         Kind = "partial"
)

// Result はすべての書き込み操作が返す結果。
type Result[T any] struct {
	Status      Status              `json:"status"`
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Data        *T                  `json:"data,omitempty"`
	Kind        Kind                `json:"-"`
}

// OK は成功結果を生成する。
func OK[T any](message string, data *T) Result[T] {
	return Result[T]{Status: StatusSuccess, Success: true, Message: message, Data: data, Kind: KindOK}
}

// Invalid は検証エラー結果を生成する。メッセージは最初のフィールドエラー。
func Invalid[T any](errs *validate.FieldErrors) Result[T] {
	return Result[T]{
		Status:      StatusInvalid,
		Message:     errs.First(),
		FieldErrors: errs.Map(),
		Kind:        KindInvalid,
	}
}

// Fail は失敗結果を生成する。
func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{Status: StatusFailure, Message: message, Kind: kind}
}

// Denied は認可拒否の結果を生成する。
func Denied[T any](d *Denial) Result[T] {
	return Fail[T](d.Kind, d.Message)
}
