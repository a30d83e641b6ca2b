// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/psga/internal/middleware"
	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/validate"
)

// maxFormMemory はマルチパートフォームをメモリに保持する上限。
const maxFormMemory = 8 << 20

// ViewCache は読み取りビューのキャッシュ。cache.ViewCacheが実装する。
type ViewCache interface {
	Get(path string) (any, bool)
	Begin(path string) uint64
	SetIfFresh(path string, gen uint64, value any) bool
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeResult は書き込み結果をKindに応じたステータスで返す。
// successStatusは成功時のステータス（作成なら201）。
func writeResult[T any](w http.ResponseWriter, res mutation.Result[T], successStatus int) {
	status := statusForKind(res.Kind)
	if res.Success {
		status = successStatus
	}
	writeJSON(w, status, res)
}

// statusForKind は結果区分をHTTPステータスに変換する。
func statusForKind(kind mutation.Kind) int {
	switch kind {
	case mutation.KindOK:
		return http.StatusOK
	case mutation.KindInvalid:
		return http.StatusUnprocessableEntity
	case mutation.KindUnauthenticated:
		return http.StatusUnauthorized
	case mutation.KindUnauthorized:
		return http.StatusForbidden
	case mutation.KindConflict:
		return http.StatusConflict
	case mutation.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var fieldErrs *validate.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeResult(w, mutation.Invalid[struct{}](fieldErrs), http.StatusOK)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthenticated, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeUserNotFound, model.ErrCodeGroupNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidURL, model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeFetchFailed:
		return http.StatusBadGateway
	case model.ErrCodeInvalidAvatar:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// formFields はフォーム本文をフラットなフィールドマップに変換する。
// 同名フィールドは最初の値を使い、CSRFトークンは除外する。
func formFields(r *http.Request) (map[string]string, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if key == middleware.CSRFFormField || len(values) == 0 {
			continue
		}
		fields[key] = values[0]
	}
	return fields, nil
}

func writeBadForm(w http.ResponseWriter, err error) {
	slog.Warn("failed to parse form", slog.String("error", err.Error()))
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "Format permintaan tidak valid.",
		Category: "validation",
		Action:   "Kirim data sebagai form.",
	})
}

// cachedView はキャッシュ済みのビューを返し、なければloadの結果をキャッシュして返す。
// 読み取りエラーはキャッシュしない。load中に無効化された結果もキャッシュしない。
func cachedView(w http.ResponseWriter, r *http.Request, cache ViewCache, key string, load func(ctx context.Context) (any, error)) {
	if v, ok := cache.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	gen := cache.Begin(key)
	v, err := load(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	cache.SetIfFresh(key, gen, v)
	writeJSON(w, http.StatusOK, v)
}

// callerOf はセッションミドルウェアが注入したCallerを返す。
func callerOf(r *http.Request) *mutation.Caller {
	return middleware.CallerFromContext(r.Context())
}

// nonNil はnilスライスを空スライスにし、JSONで[]を返すようにする。
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// writeBadRequest はパスやクエリの不正を400で返す。
func writeBadRequest(w http.ResponseWriter, message string) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(message))
}
