package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/psga/internal/model"
)

// PostgresScheduleRepo はPostgreSQLを使用したスケジュールリポジトリ。
type PostgresScheduleRepo struct {
	db *sql.DB
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

const scheduleSelect = `SELECT s.id, s.course_id, COALESCE(c.name, ''), s.day_of_week,
	s.start_time, s.end_time, s.location
	FROM schedules s
	LEFT JOIN courses c ON c.id = s.course_id`

// Create はスケジュールを作成し、採番されたIDを設定する。
func (r *PostgresScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO schedules (course_id, day_of_week, start_time, end_time, location)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		s.CourseID, s.DayOfWeek, s.StartTime, s.EndTime, s.Location,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}
	return nil
}

// Update は指定IDのスケジュールを更新する。存在しない場合はErrNotFoundを返す。
func (r *PostgresScheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedules
		 SET course_id = $1, day_of_week = $2, start_time = $3, end_time = $4, location = $5
		 WHERE id = $6`,
		s.CourseID, s.DayOfWeek, s.StartTime, s.EndTime, s.Location, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return expectAffected(result)
}

// DeleteByID は指定IDのスケジュールを削除する。存在しない場合はErrNotFoundを返す。
func (r *PostgresScheduleRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return expectAffected(result)
}

// List は全スケジュールを曜日・開始時刻順で返す。
func (r *PostgresScheduleRepo) List(ctx context.Context) ([]*model.Schedule, error) {
	return r.query(ctx, scheduleSelect+` ORDER BY s.day_of_week, s.start_time`)
}

// ListByDay は指定曜日のスケジュールを開始時刻順で返す。
func (r *PostgresScheduleRepo) ListByDay(ctx context.Context, dayOfWeek int) ([]*model.Schedule, error) {
	return r.query(ctx, scheduleSelect+` WHERE s.day_of_week = $1 ORDER BY s.start_time`, dayOfWeek)
}

func (r *PostgresScheduleRepo) query(ctx context.Context, query string, args ...any) ([]*model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		s := &model.Schedule{}
		if err := rows.Scan(&s.ID, &s.CourseID, &s.CourseName, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.Location); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	return schedules, nil
}

// compile-time interface check
var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
