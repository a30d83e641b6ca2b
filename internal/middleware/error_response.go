package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/psga/internal/model"
)

// ErrorResponseBody はミドルウェアとハンドラが返すエラーレスポンス。
// success/statusは書き込み結果（mutation.Result）と同じ形にそろえ、
// フロントエンドがどちらも同じ分岐で扱えるようにする。
type ErrorResponseBody struct {
	Success  bool   `json:"success"`
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action,omitempty"`
}

func newErrorBody(apiErr *model.APIError) ErrorResponseBody {
	return ErrorResponseBody{
		Status:   "failure",
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	}
}

// WriteErrorResponse はapiErrをstatusCodeで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(newErrorBody(apiErr)); err != nil {
		slog.Debug("error response write failed", slog.String("code", apiErr.Code), slog.String("error", err.Error()))
	}
}

var internalError = model.APIError{
	Code:     "INTERNAL_ERROR",
	Message:  "Terjadi kesalahan pada server.",
	Category: "system",
	Action:   "Silakan coba lagi beberapa saat lagi.",
}

// WriteInternalServerError は500を書き込む。原因はログにだけ残す。
func WriteInternalServerError(w http.ResponseWriter) {
	e := internalError
	WriteErrorResponse(w, http.StatusInternalServerError, &e)
}
