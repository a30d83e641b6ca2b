package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/psga/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

const taskSelect = `SELECT t.id, t.title, t.description, t.due_date, t.status, t.course_id,
	COALESCE(c.name, ''), t.created_at
	FROM tasks t
	LEFT JOIN courses c ON c.id = t.course_id`

// Create はタスクを作成し、採番されたIDとcreated_atを設定する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, due_date, status, course_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		task.Title, task.Description, task.DueDate, string(task.Status), task.CourseID,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// Update は指定IDのタスクを更新する。存在しない場合はErrNotFoundを返す。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, due_date = $3, status = $4, course_id = $5
		 WHERE id = $6`,
		task.Title, task.Description, task.DueDate, string(task.Status), task.CourseID, task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return expectAffected(result)
}

// DeleteByID は指定IDのタスクを削除する。存在しない場合はErrNotFoundを返す。
func (r *PostgresTaskRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectAffected(result)
}

// List は全タスクを期限順で返す。
func (r *PostgresTaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	return r.query(ctx, taskSelect+` ORDER BY t.due_date, t.id`)
}

// CountUnfinished はstatusがdone以外のタスク数を返す。
func (r *PostgresTaskRepo) CountUnfinished(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM tasks WHERE status <> $1`,
		string(model.TaskStatusDone),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unfinished tasks: %w", err)
	}
	return count, nil
}

// ListUpcoming はfrom以降が期限の未完了タスクを期限順にlimit件返す。
func (r *PostgresTaskRepo) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]*model.Task, error) {
	return r.query(ctx,
		taskSelect+` WHERE t.status <> $1 AND t.due_date >= $2 ORDER BY t.due_date, t.id LIMIT $3`,
		string(model.TaskStatusDone), from, limit,
	)
}

func (r *PostgresTaskRepo) query(ctx context.Context, query string, args ...any) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t := &model.Task{}
		var description sql.NullString
		var status string
		if err := rows.Scan(&t.ID, &t.Title, &description, &t.DueDate, &status, &t.CourseID, &t.CourseName, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if description.Valid {
			t.Description = &description.String
		}
		t.Status = model.TaskStatus(status)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
