package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	Save(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.Task]
	Delete(ctx context.Context, caller *mutation.Caller, id string) mutation.Result[model.Task]
	List(ctx context.Context) ([]*model.Task, error)
}

// TaskHandler はタスクのHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
	cache   ViewCache
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, cache ViewCache) *TaskHandler {
	return &TaskHandler{service: service, cache: cache}
}

// List はタスク一覧を期限順で返す。
// GET /api/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	cachedView(w, r, h.cache, "/tasks", func(ctx context.Context) (any, error) {
		tasks, err := h.service.List(ctx)
		return nonNil(tasks), err
	})
}

// Create はタスクを作成する。
// POST /api/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, err := createFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.Save(r.Context(), callerOf(r), fields), http.StatusCreated)
}

// Update はタスクを更新する。
// PUT /api/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, err := updateFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.Save(r.Context(), callerOf(r), fields), http.StatusOK)
}

// Delete はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.service.Delete(r.Context(), callerOf(r), chi.URLParam(r, "id")), http.StatusOK)
}

// createFields は作成用の入力を返す。本文にidがあっても作成として扱う。
func createFields(r *http.Request) (map[string]string, error) {
	fields, err := formFields(r)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	return fields, nil
}

// updateFields は更新用の入力を返す。idはURLの値で上書きする。
func updateFields(r *http.Request) (map[string]string, error) {
	fields, err := formFields(r)
	if err != nil {
		return nil, err
	}
	fields["id"] = chi.URLParam(r, "id")
	return fields, nil
}
