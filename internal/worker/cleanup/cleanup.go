// Package cleanup は期限切れデータの定期削除ジョブを提供する。
// ジョブはrobfig/cronのスケジュールで実行され、結果はメトリクスに記録される。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter は期限切れセッションを削除する。
// repository.PostgresSessionRepoが実装する。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Job はスケジューラから実行される定期ジョブ。
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// SessionCleanupJob は有効期限を過ぎたセッションを削除するジョブ。
// 冪等: 削除対象がない場合でもエラーにならない。
type SessionCleanupJob struct {
	sessions ExpiredSessionDeleter
	logger   *slog.Logger
}

// NewSessionCleanupJob は新しいSessionCleanupJobを生成する。
func NewSessionCleanupJob(sessions ExpiredSessionDeleter, logger *slog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions, logger: logger}
}

// Name はメトリクスとログに使うジョブ名を返す。
func (j *SessionCleanupJob) Name() string { return "session_cleanup" }

// Run は期限切れセッションを削除し、件数をログに残す。
func (j *SessionCleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("session cleanup: %w", err)
	}

	j.logger.Info("session cleanup completed",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Purger は期限切れエントリを削除するキャッシュ。cache.ViewCacheが実装する。
type Purger interface {
	Purge() int
}

// CachePurgeJob はビューキャッシュから期限切れエントリを取り除くジョブ。
type CachePurgeJob struct {
	cache  Purger
	logger *slog.Logger
}

// NewCachePurgeJob は新しいCachePurgeJobを生成する。
func NewCachePurgeJob(cache Purger, logger *slog.Logger) *CachePurgeJob {
	return &CachePurgeJob{cache: cache, logger: logger}
}

// Name はジョブ名を返す。
func (j *CachePurgeJob) Name() string { return "view_cache_purge" }

// Run は期限切れエントリを削除する。
func (j *CachePurgeJob) Run(ctx context.Context) error {
	if n := j.cache.Purge(); n > 0 {
		j.logger.Debug("view cache purged", slog.Int("purged_count", n))
	}
	return nil
}
