package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
)

// CashFlowServiceInterface はキャッシュフローハンドラーが必要とするサービスインターフェース。
type CashFlowServiceInterface interface {
	Save(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.CashFlow]
	Delete(ctx context.Context, caller *mutation.Caller, id string) mutation.Result[model.CashFlow]
	List(ctx context.Context) ([]*model.CashFlow, error)
	Summary(ctx context.Context) (model.CashSummary, error)
}

// CashFlowHandler は共有台帳のHTTPハンドラー。
type CashFlowHandler struct {
	service CashFlowServiceInterface
	cache   ViewCache
}

// NewCashFlowHandler はCashFlowHandlerを生成する。
func NewCashFlowHandler(service CashFlowServiceInterface, cache ViewCache) *CashFlowHandler {
	return &CashFlowHandler{service: service, cache: cache}
}

// List は取引一覧を新しい順で返す。
// GET /api/cashflow
func (h *CashFlowHandler) List(w http.ResponseWriter, r *http.Request) {
	cachedView(w, r, h.cache, "/cashflow", func(ctx context.Context) (any, error) {
		entries, err := h.service.List(ctx)
		return nonNil(entries), err
	})
}

// Summary は収入・支出・残高を返す。
// GET /api/cashflow/summary
func (h *CashFlowHandler) Summary(w http.ResponseWriter, r *http.Request) {
	cachedView(w, r, h.cache, "/cashflow/summary", func(ctx context.Context) (any, error) {
		return h.service.Summary(ctx)
	})
}

// Create は取引を記録する。
// POST /api/cashflow
func (h *CashFlowHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, err := createFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.Save(r.Context(), callerOf(r), fields), http.StatusCreated)
}

// Update は取引を修正する。
// PUT /api/cashflow/{id}
func (h *CashFlowHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, err := updateFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.Save(r.Context(), callerOf(r), fields), http.StatusOK)
}

// Delete は取引を削除する。
// DELETE /api/cashflow/{id}
func (h *CashFlowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.service.Delete(r.Context(), callerOf(r), chi.URLParam(r, "id")), http.StatusOK)
}
