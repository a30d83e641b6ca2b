package model

import "time"

// Course は講義科目を表す。
type Course struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Lecturer string `json:"lecturer"`
}

// TaskStatus はタスクの進捗状態を表す。
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Task は科目に紐づく課題を表す。
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     time.Time  `json:"due_date"`
	Status      TaskStatus `json:"status"`
	CourseID    int64      `json:"course_id"`
	CourseName  string     `json:"course_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Schedule は週次の講義スケジュールを表す。
// DayOfWeekは1（月曜）から7（日曜）。StartTime/EndTimeは"HH:MM"形式。
type Schedule struct {
	ID         int64  `json:"id"`
	CourseID   int64  `json:"course_id"`
	CourseName string `json:"course_name,omitempty"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Location   string `json:"location"`
}

// ISOWeekday はtime.Weekdayを1（月曜）〜7（日曜）に変換する。
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
