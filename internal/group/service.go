// Package group は学習グループとメンバー所属のドメインロジックを提供する。
//
// 書き込みはすべて管理者のみ。leaderの一意性とメンバー重複は書き込み前に確認し、
// 同時実行で確認をすり抜けた場合もデータベースの制約違反を同じ拒否メッセージに変換する。
package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/repository"
	"github.com/hitoshi/psga/internal/security"
	"github.com/hitoshi/psga/internal/validate"
)

const (
	resourceGroup  = "group"
	resourceMember = "group_member"

	msgAdminOnly      = "Unauthorized: Hanya admin yang bisa melakukan aksi ini."
	msgDuplicate      = "Pengguna ini sudah menjadi anggota grup."
	msgLeaderExists   = "Grup ini sudah memiliki Ketua. Jadikan 'member' terlebih dahulu."
	msgLeaderOnUpdate = "Grup ini sudah memiliki Ketua. Jadikan ketua saat ini sebagai 'member' terlebih dahulu."
	msgSelfRemoval    = "Admin tidak bisa mengeluarkan dirinya sendiri."
	msgGroupNotFound  = "Grup tidak ditemukan."
)

var gate = mutation.AdminOnly(msgAdminOnly)

// CreateInput はグループ作成フォームの入力。course_idは省略できる。
type CreateInput struct {
	Name     string `form:"name" validate:"min=3"`
	CourseID *int64 `form:"course_id" validate:"omitempty,min=1"`
}

// FieldMessages はフィールドごとのエラーメッセージを返す。
func (CreateInput) FieldMessages() validate.Messages {
	return validate.Messages{
		"name":      "Nama grup minimal 3 karakter.",
		"course_id": "Mata kuliah harus dipilih.",
	}
}

// AddMemberInput はメンバー追加フォームの入力。
type AddMemberInput struct {
	GroupID int64            `form:"group_id" validate:"min=1"`
	UserID  string           `form:"user_id" validate:"uuid"`
	Role    model.MemberRole `form:"role" validate:"oneof=member leader"`
}

// FieldMessages はフィールドごとのエラーメッセージを返す。
func (AddMemberInput) FieldMessages() validate.Messages {
	return validate.Messages{
		"group_id": "ID Grup tidak valid.",
		"user_id":  "User ID tidak valid.",
		"role":     "Peran harus 'member' atau 'leader'.",
	}
}

// RemoveMemberInput はメンバー除外の入力。
type RemoveMemberInput struct {
	GroupID int64  `form:"group_id" validate:"min=1"`
	UserID  string `form:"user_id" validate:"uuid"`
}

func (RemoveMemberInput) FieldMessages() validate.Messages {
	return validate.Messages{
		"group_id": "Input tidak valid.",
		"user_id":  "Input tidak valid.",
	}
}

// UpdateRoleInput は役割変更の入力。
type UpdateRoleInput struct {
	GroupID int64            `form:"group_id" validate:"min=1"`
	UserID  string           `form:"user_id" validate:"uuid"`
	NewRole model.MemberRole `form:"new_role" validate:"oneof=member leader"`
}

func (UpdateRoleInput) FieldMessages() validate.Messages {
	return validate.Messages{
		"group_id": "Input peran tidak valid.",
		"user_id":  "Input peran tidak valid.",
		"new_role": "Input peran tidak valid.",
	}
}

// Detail はグループ詳細ビュー。メンバーはleaderが先頭。
type Detail struct {
	Group   *model.Group         `json:"group"`
	Members []*model.GroupMember `json:"members"`
}

// Service はグループのサービス層。
type Service struct {
	groupRepo  repository.GroupRepository
	memberRepo repository.GroupMemberRepository
	engine     *mutation.Engine
	validator  *validate.Validator
	sanitizer  *security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	groupRepo repository.GroupRepository,
	memberRepo repository.GroupMemberRepository,
	engine *mutation.Engine,
	validator *validate.Validator,
	sanitizer *security.TextSanitizer,
) *Service {
	return &Service{
		groupRepo:  groupRepo,
		memberRepo: memberRepo,
		engine:     engine,
		validator:  validator,
		sanitizer:  sanitizer,
	}
}

// Create はグループを作成し、作成者をleaderとして所属させる。
// 両方の書き込みは1トランザクションで行われる。
func (s *Service) Create(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.Group] {
	fields = s.sanitizer.CleanFields(fields, "name")

	spec := mutation.Spec[CreateInput, model.Group]{
		Resource: resourceGroup,
		Gate:     gate,
		Decode: func(fields map[string]string) (CreateInput, *validate.FieldErrors) {
			return validate.Into[CreateInput](s.validator, fields)
		},
		Plan: func(caller *mutation.Caller, in CreateInput) mutation.Plan[model.Group] {
			g := &model.Group{
				Name:      in.Name,
				CourseID:  in.CourseID,
				CreatedBy: caller.UserID,
			}
			return mutation.Plan[model.Group]{
				Operation:     "create",
				Success:       "Grup berhasil dibuat (dan Anda telah ditambahkan sebagai 'leader').",
				FailurePrefix: "Gagal membuat grup",
				Dispatch: func(ctx context.Context) (*model.Group, error) {
					return g, s.groupRepo.CreateWithLeader(ctx, g)
				},
				Views: func(*model.Group) []string {
					return []string{"/groups"}
				},
			}
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, fields)
}

// AddMember はグループにメンバーを追加する。
func (s *Service) AddMember(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember] {
	spec := mutation.Spec[AddMemberInput, model.GroupMember]{
		Resource: resourceMember,
		Gate:     gate,
		Decode: func(fields map[string]string) (AddMemberInput, *validate.FieldErrors) {
			return validate.Into[AddMemberInput](s.validator, validate.LowerFields(fields, "user_id"))
		},
		Check: s.checkAdd,
		Plan: func(_ *mutation.Caller, in AddMemberInput) mutation.Plan[model.GroupMember] {
			m := &model.GroupMember{GroupID: in.GroupID, UserID: in.UserID, Role: in.Role}
			return mutation.Plan[model.GroupMember]{
				Operation:     "add",
				Success:       "Anggota berhasil ditambahkan.",
				FailurePrefix: "Gagal menambahkan anggota",
				Dispatch: func(ctx context.Context) (*model.GroupMember, error) {
					if err := s.memberRepo.Add(ctx, m); err != nil {
						return nil, conflictDenial(err, msgLeaderExists)
					}
					return m, nil
				},
				Views: memberViews(in.GroupID, in.UserID),
			}
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, fields)
}

func (s *Service) checkAdd(ctx context.Context, _ *mutation.Caller, in AddMemberInput) (*mutation.Denial, error) {
	g, err := s.groupRepo.FindByID(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return mutation.Deny(mutation.KindNotFound, msgGroupNotFound), nil
	}

	existing, err := s.memberRepo.Find(ctx, in.GroupID, in.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return mutation.Conflict(msgDuplicate), nil
	}

	if in.Role == model.MemberRoleLeader {
		leader, err := s.memberRepo.FindLeader(ctx, in.GroupID)
		if err != nil {
			return nil, err
		}
		if leader != nil {
			return mutation.Conflict(msgLeaderExists), nil
		}
	}
	return nil, nil
}

// RemoveMember はグループからメンバーを外す。管理者自身は外せない。
func (s *Service) RemoveMember(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember] {
	spec := mutation.Spec[RemoveMemberInput, model.GroupMember]{
		Resource: resourceMember,
		Gate:     gate,
		Decode: func(fields map[string]string) (RemoveMemberInput, *validate.FieldErrors) {
			return validate.Into[RemoveMemberInput](s.validator, validate.LowerFields(fields, "user_id"))
		},
		Check: func(_ context.Context, caller *mutation.Caller, in RemoveMemberInput) (*mutation.Denial, error) {
			if in.UserID == caller.UserID {
				return mutation.Deny(mutation.KindUnauthorized, msgSelfRemoval), nil
			}
			return nil, nil
		},
		Plan: func(_ *mutation.Caller, in RemoveMemberInput) mutation.Plan[model.GroupMember] {
			return mutation.Plan[model.GroupMember]{
				Operation:     "remove",
				Success:       "Anggota berhasil dikeluarkan.",
				FailurePrefix: "Gagal mengeluarkan anggota",
				Dispatch: func(ctx context.Context) (*model.GroupMember, error) {
					return nil, s.memberRepo.Remove(ctx, in.GroupID, in.UserID)
				},
				Views: memberViews(in.GroupID, in.UserID),
			}
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, fields)
}

// UpdateMemberRole はメンバーの役割を変更する。
// leaderにする場合、対象者以外のleaderがいれば拒否する。
func (s *Service) UpdateMemberRole(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[model.GroupMember] {
	spec := mutation.Spec[UpdateRoleInput, model.GroupMember]{
		Resource: resourceMember,
		Gate:     gate,
		Decode: func(fields map[string]string) (UpdateRoleInput, *validate.FieldErrors) {
			return validate.Into[UpdateRoleInput](s.validator, validate.LowerFields(fields, "user_id"))
		},
		Check: func(ctx context.Context, _ *mutation.Caller, in UpdateRoleInput) (*mutation.Denial, error) {
			if in.NewRole != model.MemberRoleLeader {
				return nil, nil
			}
			leader, err := s.memberRepo.FindLeader(ctx, in.GroupID)
			if err != nil {
				return nil, err
			}
			if leader != nil && leader.UserID != in.UserID {
				return mutation.Conflict(msgLeaderOnUpdate), nil
			}
			return nil, nil
		},
		Plan: func(_ *mutation.Caller, in UpdateRoleInput) mutation.Plan[model.GroupMember] {
			m := &model.GroupMember{GroupID: in.GroupID, UserID: in.UserID, Role: in.NewRole}
			return mutation.Plan[model.GroupMember]{
				Operation:     "update_role",
				Success:       "Peran anggota berhasil diperbarui.",
				FailurePrefix: "Gagal memperbarui peran",
				Dispatch: func(ctx context.Context) (*model.GroupMember, error) {
					if err := s.memberRepo.UpdateRole(ctx, in.GroupID, in.UserID, in.NewRole); err != nil {
						return nil, conflictDenial(err, msgLeaderOnUpdate)
					}
					return m, nil
				},
				Views: memberViews(in.GroupID, in.UserID),
			}
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, fields)
}

// ListForUser はユーザーが所属するグループと役割を返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]model.Membership, error) {
	memberships, err := s.groupRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("所属グループの取得に失敗しました: %w", err)
	}
	return memberships, nil
}

// Detail はグループと所属メンバーを返す。
func (s *Service) Detail(ctx context.Context, groupID int64) (*Detail, error) {
	g, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("グループの取得に失敗しました: %w", err)
	}
	if g == nil {
		return nil, model.NewGroupNotFoundError(groupID)
	}

	members, err := s.memberRepo.ListByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	return &Detail{Group: g, Members: members}, nil
}

// conflictDenial は制約違反を確認時と同じ拒否に変換する。それ以外のエラーはそのまま返す。
func conflictDenial(err error, leaderMessage string) error {
	switch {
	case repository.IsLeaderConflict(err):
		return mutation.Conflict(leaderMessage)
	case errors.Is(err, repository.ErrConflict):
		return mutation.Conflict(msgDuplicate)
	default:
		return err
	}
}

// memberViews は所属変更で古くなるビュー（グループ詳細と対象ユーザーの一覧）を返す。
func memberViews(groupID int64, userID string) func(*model.GroupMember) []string {
	return func(*model.GroupMember) []string {
		return []string{
			fmt.Sprintf("/groups/%d", groupID),
			"/groups?user=" + userID,
		}
	}
}
