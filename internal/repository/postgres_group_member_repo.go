package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/psga/internal/model"
)

// PostgresGroupMemberRepo はPostgreSQLを使用したグループ所属リポジトリ。
// (group_id, user_id)の主キーとleaderの部分一意インデックスが最終的な整合性を保証する。
type PostgresGroupMemberRepo struct {
	db *sql.DB
}

// NewPostgresGroupMemberRepo はPostgresGroupMemberRepoを生成する。
func NewPostgresGroupMemberRepo(db *sql.DB) *PostgresGroupMemberRepo {
	return &PostgresGroupMemberRepo{db: db}
}

// Find は所属を取得する。見つからない場合はnilを返す。
func (r *PostgresGroupMemberRepo) Find(ctx context.Context, groupID int64, userID string) (*model.GroupMember, error) {
	return r.findOne(ctx,
		`SELECT group_id, user_id, role, joined_at FROM group_members
		 WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
}

// FindLeader はグループのleaderを取得する。いない場合はnilを返す。
func (r *PostgresGroupMemberRepo) FindLeader(ctx context.Context, groupID int64) (*model.GroupMember, error) {
	return r.findOne(ctx,
		`SELECT group_id, user_id, role, joined_at FROM group_members
		 WHERE group_id = $1 AND role = $2`,
		groupID, string(model.MemberRoleLeader),
	)
}

func (r *PostgresGroupMemberRepo) findOne(ctx context.Context, query string, args ...any) (*model.GroupMember, error) {
	m := &model.GroupMember{}
	var role string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&m.GroupID, &m.UserID, &role, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group member: %w", err)
	}
	m.Role = model.MemberRole(role)
	return m, nil
}

// Add は所属を追加する。重複・leader重複はErrConflictを返す。
func (r *PostgresGroupMemberRepo) Add(ctx context.Context, member *model.GroupMember) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role)
		 VALUES ($1, $2, $3)
		 RETURNING joined_at`,
		member.GroupID, member.UserID, string(member.Role),
	).Scan(&member.JoinedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return &ConflictError{Constraint: ConstraintName(err)}
		}
		return fmt.Errorf("failed to insert group member: %w", err)
	}
	return nil
}

// UpdateRole は役割を変更する。
func (r *PostgresGroupMemberRepo) UpdateRole(ctx context.Context, groupID int64, userID string, role model.MemberRole) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE group_members SET role = $1 WHERE group_id = $2 AND user_id = $3`,
		string(role), groupID, userID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return &ConflictError{Constraint: ConstraintName(err)}
		}
		return fmt.Errorf("failed to update group member role: %w", err)
	}
	return expectAffected(result)
}

// Remove は所属を削除する。所属なしはErrNotFoundを返す。
func (r *PostgresGroupMemberRepo) Remove(ctx context.Context, groupID int64, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete group member: %w", err)
	}
	return expectAffected(result)
}

// ListByGroupID はメンバーを役割順（leaderが先）・氏名順で返す。
func (r *PostgresGroupMemberRepo) ListByGroupID(ctx context.Context, groupID int64) ([]*model.GroupMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT gm.group_id, gm.user_id, gm.role, COALESCE(p.full_name, ''), gm.joined_at
		 FROM group_members gm
		 LEFT JOIN profiles p ON p.id = gm.user_id
		 WHERE gm.group_id = $1
		 ORDER BY gm.role = 'leader' DESC, p.full_name`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []*model.GroupMember
	for rows.Next() {
		m := &model.GroupMember{}
		var role string
		if err := rows.Scan(&m.GroupID, &m.UserID, &role, &m.FullName, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		m.Role = model.MemberRole(role)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

// compile-time interface check
var _ GroupMemberRepository = (*PostgresGroupMemberRepo)(nil)
