package cleanup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// JobRecorder はジョブの実行結果を記録する。metrics.Collectorが実装する。
type JobRecorder interface {
	RecordJobRun(job string, err error)
}

// Scheduler はcron式でジョブを定期実行する。
// 前回の実行が終わっていないジョブは次の起動をスキップする。
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	recorder JobRecorder
	ctx      context.Context
}

// NewScheduler はSchedulerを生成する。recorderはnilでもよい。
func NewScheduler(logger *slog.Logger, recorder JobRecorder) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger,
		recorder: recorder,
		ctx:      context.Background(),
	}
}

// Add はspec（"@daily"、"@every 1m"、5フィールドのcron式）でjobを登録する。
func (s *Scheduler) Add(spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow(s.ctx, job) }); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, job.Name(), err)
	}
	s.logger.Info("job scheduled",
		slog.String("job", job.Name()),
		slog.String("schedule", spec),
	)
	return nil
}

// RunNow はjobを即座に実行し、結果を記録する。
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	err := job.Run(ctx)
	if err != nil {
		s.logger.Error("job failed",
			slog.String("job", job.Name()),
			slog.String("error", err.Error()),
		)
	}
	if s.recorder != nil {
		s.recorder.RecordJobRun(job.Name(), err)
	}
	return err
}

// Start はスケジューラを起動し、ctxがキャンセルされるまでブロックする。
// 停止時は実行中のジョブの完了を待つ。
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
