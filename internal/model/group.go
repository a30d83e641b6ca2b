package model

import "time"

// MemberRole はグループ内での役割を表す。
type MemberRole string

const (
	MemberRoleMember MemberRole = "member"
	MemberRoleLeader MemberRole = "leader"
)

// Group は学習グループを表す。
type Group struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	CourseID   *int64    `json:"course_id,omitempty"`
	CourseName string    `json:"course_name,omitempty"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// GroupMember はグループとユーザーの所属関係を表す。
// (GroupID, UserID)の組は一意で、leaderは1グループに高々1人。
type GroupMember struct {
	GroupID  int64      `json:"group_id"`
	UserID   string     `json:"user_id"`
	Role     MemberRole `json:"role"`
	FullName string     `json:"full_name,omitempty"`
	JoinedAt time.Time  `json:"joined_at"`
}

// Membership はユーザー視点の所属グループ一覧の1行。
type Membership struct {
	Group Group      `json:"group"`
	Role  MemberRole `json:"role"`
}
