package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/psga/internal/group"
	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
)

// GroupServiceInterface はグループハンドラーが必要とするサービスインターフェース。
type GroupServiceInterface interface {
	Create(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.Group]
	AddMember(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember]
	RemoveMember(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember]
	UpdateMemberRole(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember]
	ListForUser(ctx context.Context, userID string) ([]model.Membership, error)
	Detail(ctx context.Context, groupID int64) (*group.Detail, error)
}

// GroupHandler はグループと所属管理のHTTPハンドラー。
type GroupHandler struct {
	service GroupServiceInterface
	cache   ViewCache
}

// NewGroupHandler はGroupHandlerを生成する。
func NewGroupHandler(service GroupServiceInterface, cache ViewCache) *GroupHandler {
	return &GroupHandler{service: service, cache: cache}
}

// List はログインユーザーが所属するグループを返す。
// GET /api/groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	cachedView(w, r, h.cache, "/groups?user="+caller.UserID, func(ctx context.Context) (any, error) {
		memberships, err := h.service.ListForUser(ctx, caller.UserID)
		return nonNil(memberships), err
	})
}

// Get はグループ詳細とメンバー一覧を返す。
// GET /api/groups/{id}
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || groupID < 1 {
		writeBadRequest(w, "ID Grup tidak valid.")
		return
	}
	cachedView(w, r, h.cache, "/groups/"+strconv.FormatInt(groupID, 10), func(ctx context.Context) (any, error) {
		return h.service.Detail(ctx, groupID)
	})
}

// Create はグループを作成し、作成者をleaderにする。
// POST /api/groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, err := formFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.Create(r.Context(), callerOf(r), fields), http.StatusCreated)
}

// AddMember はメンバーを追加する。user_idとroleは本文で受け取る。
// POST /api/groups/{id}/members
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	fields, err := memberFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.AddMember(r.Context(), callerOf(r), fields), http.StatusCreated)
}

// UpdateMemberRole はメンバーの役割を変更する。
// PUT /api/groups/{id}/members/{userID}
func (h *GroupHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	fields, err := memberFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.UpdateMemberRole(r.Context(), callerOf(r), fields), http.StatusOK)
}

// RemoveMember はメンバーをグループから外す。
// DELETE /api/groups/{id}/members/{userID}
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{
		"group_id": chi.URLParam(r, "id"),
		"user_id":  chi.URLParam(r, "userID"),
	}
	writeResult(w, h.service.RemoveMember(r.Context(), callerOf(r), fields), http.StatusOK)
}

// memberFields は本文の入力にURLのgroup_idとuser_idを重ねる。
func memberFields(r *http.Request) (map[string]string, error) {
	fields, err := formFields(r)
	if err != nil {
		return nil, err
	}
	fields["group_id"] = chi.URLParam(r, "id")
	if userID := chi.URLParam(r, "userID"); userID != "" {
		fields["user_id"] = userID
	}
	return fields, nil
}
