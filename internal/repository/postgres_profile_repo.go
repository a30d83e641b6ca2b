package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/psga/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByID は指定IDのプロフィールをアカウントのメールアドレス付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	p := &model.Profile{}
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, a.email, p.full_name, p.avatar_url, p.linkedin_url, p.github_url, p.role, p.updated_at
		 FROM profiles p
		 JOIN accounts a ON a.id = p.id
		 WHERE p.id = $1`,
		id,
	).Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.LinkedinURL, &p.GithubURL, &role, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}

	p.Role = model.Role(role)
	return p, nil
}

// Update は氏名とSNSリンクを更新する。
func (r *PostgresProfileRepo) Update(ctx context.Context, p *model.Profile) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		 SET full_name = $1, linkedin_url = $2, github_url = $3, updated_at = now()
		 WHERE id = $4`,
		p.FullName, p.LinkedinURL, p.GithubURL, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectAffected(result)
}

// ListMembers は全メンバーを氏名順で返す。
func (r *PostgresProfileRepo) ListMembers(ctx context.Context) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name FROM profiles ORDER BY full_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// UpdateAvatar はアバター画像と公開URLを更新する。
func (r *PostgresProfileRepo) UpdateAvatar(ctx context.Context, avatar *model.Avatar, avatarURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		 SET avatar_data = $1, avatar_mime = $2, avatar_url = $3, updated_at = now()
		 WHERE id = $4`,
		avatar.Data, avatar.Mime, avatarURL, avatar.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return expectAffected(result)
}

// FindAvatar はアバター画像を取得する。未設定の場合はnilを返す。
func (r *PostgresProfileRepo) FindAvatar(ctx context.Context, userID string) (*model.Avatar, error) {
	a := &model.Avatar{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT avatar_data, avatar_mime, updated_at
		 FROM profiles WHERE id = $1 AND avatar_data IS NOT NULL`,
		userID,
	).Scan(&a.Data, &a.Mime, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find avatar: %w", err)
	}
	return a, nil
}

// expectAffected は更新・削除の影響行数が0の場合にErrNotFoundを返す。
func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
