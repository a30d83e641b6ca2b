package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
)

// ScheduleServiceInterface はスケジュールハンドラーが必要とするサービスインターフェース。
type ScheduleServiceInterface interface {
	Save(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.Schedule]
	Delete(ctx context.Context, caller *mutation.Caller, id string) mutation.Result[model.Schedule]
	List(ctx context.Context) ([]*model.Schedule, error)
	ListByDay(ctx context.Context, dayOfWeek int) ([]*model.Schedule, error)
}

// ScheduleHandler は講義スケジュールのHTTPハンドラー。
type ScheduleHandler struct {
	service ScheduleServiceInterface
	cache   ViewCache
}

// NewScheduleHandler はScheduleHandlerを生成する。
func NewScheduleHandler(service ScheduleServiceInterface, cache ViewCache) *ScheduleHandler {
	return &ScheduleHandler{service: service, cache: cache}
}

// List はスケジュール一覧を返す。?day=1〜7で曜日を絞り込む。
// GET /api/schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	dayParam := r.URL.Query().Get("day")
	if dayParam == "" {
		cachedView(w, r, h.cache, "/schedules", func(ctx context.Context) (any, error) {
			schedules, err := h.service.List(ctx)
			return nonNil(schedules), err
		})
		return
	}

	day, err := strconv.Atoi(dayParam)
	if err != nil {
		writeBadRequest(w, "Hari tidak valid.")
		return
	}
	cachedView(w, r, h.cache, "/schedules?day="+strconv.Itoa(day), func(ctx context.Context) (any, error) {
		schedules, err := h.service.ListByDay(ctx, day)
		return nonNil(schedules), err
	})
}

// Create はスケジュールを作成する。
// POST /api/schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, err := createFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.Save(r.Context(), callerOf(r), fields), http.StatusCreated)
}

// Update はスケジュールを更新する。
// PUT /api/schedules/{id}
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, err := updateFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.Save(r.Context(), callerOf(r), fields), http.StatusOK)
}

// Delete はスケジュールを削除する。
// DELETE /api/schedules/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.service.Delete(r.Context(), callerOf(r), chi.URLParam(r, "id")), http.StatusOK)
}
