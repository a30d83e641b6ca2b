package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/psga/internal/model"
)

// PostgresGroupRepo はPostgreSQLを使用したグループリポジトリ。
type PostgresGroupRepo struct {
	db *sql.DB
}

// NewPostgresGroupRepo はPostgresGroupRepoを生成する。
func NewPostgresGroupRepo(db *sql.DB) *PostgresGroupRepo {
	return &PostgresGroupRepo{db: db}
}

// CreateWithLeader はグループと作成者のleader所属を同一トランザクションで作成する。
// どちらかが失敗した場合は両方ロールバックされる。
func (r *PostgresGroupRepo) CreateWithLeader(ctx context.Context, group *model.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO groups (name, course_id, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		group.Name, group.CourseID, group.CreatedBy,
	).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role)
		 VALUES ($1, $2, $3)`,
		group.ID, group.CreatedBy, string(model.MemberRoleLeader),
	)
	if err != nil {
		return fmt.Errorf("failed to insert leader membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID は科目名付きでグループを取得する。見つからない場合はnilを返す。
func (r *PostgresGroupRepo) FindByID(ctx context.Context, id int64) (*model.Group, error) {
	g := &model.Group{}
	err := r.db.QueryRowContext(ctx,
		`SELECT g.id, g.name, g.course_id, COALESCE(c.name, ''), g.created_by, g.created_at
		 FROM groups g
		 LEFT JOIN courses c ON c.id = g.course_id
		 WHERE g.id = $1`,
		id,
	).Scan(&g.ID, &g.Name, &g.CourseID, &g.CourseName, &g.CreatedBy, &g.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group by ID: %w", err)
	}
	return g, nil
}

// ListByUserID はユーザーが所属するグループを作成日時の新しい順で返す。
func (r *PostgresGroupRepo) ListByUserID(ctx context.Context, userID string) ([]model.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.course_id, COALESCE(c.name, ''), g.created_by, g.created_at, gm.role
		 FROM group_members gm
		 JOIN groups g ON g.id = gm.group_id
		 LEFT JOIN courses c ON c.id = g.course_id
		 WHERE gm.user_id = $1
		 ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups by user: %w", err)
	}
	defer rows.Close()

	var memberships []model.Membership
	for rows.Next() {
		var m model.Membership
		var role string
		g := &m.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CourseID, &g.CourseName, &g.CreatedBy, &g.CreatedAt, &role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.Role = model.MemberRole(role)
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}

// compile-time interface check
var _ GroupRepository = (*PostgresGroupRepo)(nil)
