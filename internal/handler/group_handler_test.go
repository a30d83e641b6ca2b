package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/hitoshi/psga/internal/group"
	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
)

// --- モック定義 ---

type mockGroupService struct {
	createFn     func(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.Group]
	memberFn     func(op string, fields map[string]string) mutation.Result[model.GroupMember]
	listFn       func(ctx context.Context, userID string) ([]model.Membership, error)
	detailFn     func(ctx context.Context, groupID int64) (*group.Detail, error)
	detailCalled int
}

func (m *mockGroupService) Create(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.Group] {
	return m.createFn(ctx, caller, fields)
}
func (m *mockGroupService) AddMember(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember] {
	return m.memberFn("add", fields)
}
func (m *mockGroupService) RemoveMember(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember] {
	return m.memberFn("remove", fields)
}
func (m *mockGroupService) UpdateMemberRole(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember] {
	return m.memberFn("update", fields)
}
func (m *mockGroupService) ListForUser(ctx context.Context, userID string) ([]model.Membership, error) {
	return m.listFn(ctx, userID)
}
func (m *mockGroupService) Detail(ctx context.Context, groupID int64) (*group.Detail, error) {
	m.detailCalled++
	return m.detailFn(ctx, groupID)
}

// --- テスト ---

const targetUser = "33333333-3333-3333-3333-333333333333"

func TestGroupHandler_MemberOperationsTakeIDsFromPath(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		pattern  string
		target   string
		form     url.Values
		wantOp   string
		wantRole string
		wantCode int
	}{
		{
			name: "add", method: http.MethodPost,
			pattern: "/api/groups/{id}/members", target: "/api/groups/12/members",
			form:   url.Values{"user_id": {targetUser}, "role": {"member"}},
			wantOp: "add", wantCode: http.StatusCreated,
		},
		{
			name: "update", method: http.MethodPut,
			pattern: "/api/groups/{id}/members/{userID}", target: "/api/groups/12/members/" + targetUser,
			form:   url.Values{"new_role": {"leader"}, "user_id": {"ignored"}},
			wantOp: "update", wantRole: "leader", wantCode: http.StatusOK,
		},
		{
			name: "remove", method: http.MethodDelete,
			pattern: "/api/groups/{id}/members/{userID}", target: "/api/groups/12/members/" + targetUser,
			wantOp: "remove", wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOp string
			var got map[string]string
			svc := &mockGroupService{
				memberFn: func(op string, fields map[string]string) mutation.Result[model.GroupMember] {
					gotOp, got = op, fields
					return mutation.OK("ok", &model.GroupMember{})
				},
			}
			h := NewGroupHandler(svc, newTestCache())
			handlers := map[string]http.HandlerFunc{"add": h.AddMember, "update": h.UpdateMemberRole, "remove": h.RemoveMember}

			w := serve(tt.method, tt.pattern, tt.target, handlers[tt.name], adminCaller, tt.form)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if gotOp != tt.wantOp {
				t.Errorf("op = %q, want %q", gotOp, tt.wantOp)
			}
			if got["group_id"] != "12" || got["user_id"] != targetUser {
				t.Errorf("fields = %v", got)
			}
			if tt.wantRole != "" && got["new_role"] != tt.wantRole {
				t.Errorf("new_role = %q, want %q", got["new_role"], tt.wantRole)
			}
		})
	}
}

func TestGroupHandler_ConflictIs409(t *testing.T) {
	svc := &mockGroupService{
		memberFn: func(op string, fields map[string]string) mutation.Result[model.GroupMember] {
			return mutation.Denied[model.GroupMember](mutation.Conflict("Grup ini sudah memiliki Ketua. Jadikan 'member' terlebih dahulu."))
		},
	}
	h := NewGroupHandler(svc, newTestCache())

	w := serve(http.MethodPost, "/api/groups/{id}/members", "/api/groups/12/members", h.AddMember, adminCaller,
		url.Values{"user_id": {targetUser}, "role": {"leader"}})

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestGroupHandler_Get(t *testing.T) {
	svc := &mockGroupService{
		detailFn: func(ctx context.Context, groupID int64) (*group.Detail, error) {
			if groupID != 12 {
				return nil, model.NewGroupNotFoundError(groupID)
			}
			return &group.Detail{Group: &model.Group{ID: 12, Name: "Kelompok 1"}}, nil
		},
	}
	h := NewGroupHandler(svc, newTestCache())

	if w := serve(http.MethodGet, "/api/groups/{id}", "/api/groups/12", h.Get, memberCaller, nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	serve(http.MethodGet, "/api/groups/{id}", "/api/groups/12", h.Get, memberCaller, nil)
	if svc.detailCalled != 1 {
		t.Errorf("detailCalled = %d, want 1 (cached)", svc.detailCalled)
	}
	if w := serve(http.MethodGet, "/api/groups/{id}", "/api/groups/13", h.Get, memberCaller, nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if w := serve(http.MethodGet, "/api/groups/{id}", "/api/groups/abc", h.Get, memberCaller, nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGroupHandler_ListIsPerUser(t *testing.T) {
	var gotUser string
	svc := &mockGroupService{
		listFn: func(ctx context.Context, userID string) ([]model.Membership, error) {
			gotUser = userID
			return []model.Membership{{Group: model.Group{ID: 1}, Role: model.MemberRoleLeader}}, nil
		},
	}
	c := newTestCache()
	h := NewGroupHandler(svc, c)

	serve(http.MethodGet, "/api/groups", "/api/groups", h.List, memberCaller, nil)

	if gotUser != memberCaller.UserID {
		t.Errorf("userID = %q, want %q", gotUser, memberCaller.UserID)
	}
	if _, ok := c.Get("/groups?user=" + memberCaller.UserID); !ok {
		t.Error("expected per-user cache entry")
	}
}
