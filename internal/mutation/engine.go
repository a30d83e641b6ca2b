package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/psga/internal/repository"
	"github.com/hitoshi/psga/internal/validate"
)

// Invalidator は書き込み成功後に古くなったビューを破棄する。
// 失敗を返さない。
type Invalidator interface {
	Invalidate(paths ...string)
}

// Recorder は書き込みの結果と所要時間を記録する。
type Recorder interface {
	ObserveMutation(resource, operation, outcome string, duration time.Duration)
}

// Plan は検証済み入力から決まる1回分の書き込み内容。
type Plan[Out any] struct {
	// Operation はcreate/update/deleteなどの操作名。
	Operation string
	// Success は成功時のメッセージ。
	Success string
	// FailurePrefix はストアエラーを報告するときの前置き。
	FailurePrefix string
	// Dispatch はちょうど1回の書き込みを行う。再試行しない。
	Dispatch func(ctx context.Context) (*Out, error)
	// Views は成功時に無効化するビューのパスを返す。
	Views func(out *Out) []string
}

// Spec はリソース操作1種類の宣言。
type Spec[In any, Out any] struct {
	Resource string
	Gate     Gate
	// Decode はフォーム入力を検証済みの値に変換する。
	Decode func(fields map[string]string) (In, *validate.FieldErrors)
	// Check は検証済み入力に対するリソース固有の不変条件チェック。省略可。
	// 拒否はDenial、参照自体の失敗はerrorで返す。
	Check func(ctx context.Context, caller *Caller, in In) (*Denial, error)
	// Plan は検証済み入力から書き込み内容を決める。
	Plan func(caller *Caller, in In) Plan[Out]
}

// Engine はSpecを実行する。並行利用できる。
type Engine struct {
	invalidator Invalidator
	recorder    Recorder
	logger      *slog.Logger
}

// NewEngine はEngineを生成する。recorderはnilでもよい。
func NewEngine(invalidator Invalidator, recorder Recorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{invalidator: invalidator, recorder: recorder, logger: logger}
}

// Run はspecに従って1回の書き込みを実行し、結果を返す。
// ゲート・検証・チェックのいずれかで止まった場合、書き込みは行われない。
func Run[In any, Out any](ctx context.Context, e *Engine, spec Spec[In, Out], caller *Caller, fields map[string]string) Result[Out] {
	start := time.Now()
	operation := "unknown"

	finish := func(r Result[Out]) Result[Out] {
		e.observe(spec.Resource, operation, r.Kind, time.Since(start))
		return r
	}

	if d := spec.Gate.Check(caller); d != nil {
		e.logDenial(spec.Resource, caller, d)
		return finish(Denied[Out](d))
	}

	in, errs := spec.Decode(fields)
	if errs.Len() > 0 {
		e.logger.Info("mutation rejected by validation",
			slog.String("resource", spec.Resource),
			slog.Any("fields", errs.Fields()),
		)
		return finish(Invalid[Out](errs))
	}

	plan := spec.Plan(caller, in)
	operation = plan.Operation

	if spec.Check != nil {
		d, err := spec.Check(ctx, caller, in)
		if err != nil {
			return finish(storeFailure(e, spec.Resource, plan, err))
		}
		if d != nil {
			e.logDenial(spec.Resource, caller, d)
			return finish(Denied[Out](d))
		}
	}

	out, err := plan.Dispatch(ctx)
	if err != nil {
		return finish(storeFailure(e, spec.Resource, plan, err))
	}

	if plan.Views != nil && e.invalidator != nil {
		e.invalidator.Invalidate(plan.Views(out)...)
	}

	e.logger.Info("mutation committed",
		slog.String("resource", spec.Resource),
		slog.String("operation", plan.Operation),
		slog.String("user_id", caller.UserID),
	)
	return finish(OK(plan.Success, out))
}

// storeFailure はDispatchまたはCheckのエラーを結果に変換する。
// Denialはそのまま拒否として、ErrNotFoundは対象なしとして報告し、
// それ以外はストアのメッセージを前置き付きでそのまま報告する。
func storeFailure[Out any](e *Engine, resource string, plan Plan[Out], err error) Result[Out] {
	var d *Denial
	if errors.As(err, &d) {
		e.logger.Warn("mutation denied by store constraint",
			slog.String("resource", resource),
			slog.String("operation", plan.Operation),
			slog.String("reason", d.Message),
		)
		return Denied[Out](d)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return Fail[Out](KindNotFound, prefixed(plan.FailurePrefix, MsgNotFound))
	}

	e.logger.Error("mutation failed",
		slog.String("resource", resource),
		slog.String("operation", plan.Operation),
		slog.String("error", err.Error()),
	)
	return Fail[Out](KindStore, prefixed(plan.FailurePrefix, err.Error()))
}

func prefixed(prefix, message string) string {
	if prefix == "" {
		return message
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

func (e *Engine) logDenial(resource string, caller *Caller, d *Denial) {
	userID := ""
	if caller != nil {
		userID = caller.UserID
	}
	e.logger.Warn("mutation denied",
		slog.String("resource", resource),
		slog.String("kind", string(d.Kind)),
		slog.String("user_id", userID),
	)
}

func (e *Engine) observe(resource, operation string, kind Kind, d time.Duration) {
	if e.recorder == nil {
		return
	}
	e.recorder.ObserveMutation(resource, operation, string(kind), d)
}
