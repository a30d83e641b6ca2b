package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound は更新・削除対象の行が存在しないことを示す。
	ErrNotFound = errors.New("record not found")
	// ErrConflict は一意制約違反を示す。
	ErrConflict = errors.New("unique constraint violated")
)

// ConstraintGroupLeader は1グループ1leaderを保証する部分一意インデックス名。
const ConstraintGroupLeader = "uq_group_members_leader"

// ConflictError は一意制約違反と違反した制約名を表す。errors.Is(err, ErrConflict)が成り立つ。
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConflict.Error(), e.Constraint)
}

// Is はErrConflictとの比較を可能にする。
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsLeaderConflict はerrがleader重複による制約違反かどうかを判定する。
func IsLeaderConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Constraint == ConstraintGroupLeader
}

// PostgreSQLのエラーコード
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// IsUniqueViolation はerrがPostgreSQLの一意制約違反かどうかを判定する。
func IsUniqueViolation(err error) bool {
	return pqErrorCode(err) == pqUniqueViolation
}

// IsForeignKeyViolation はerrがPostgreSQLの外部キー制約違反かどうかを判定する。
func IsForeignKeyViolation(err error) bool {
	return pqErrorCode(err) == pqForeignKeyViolation
}

// ConstraintName は制約違反エラーの制約名を返す。
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

func pqErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
