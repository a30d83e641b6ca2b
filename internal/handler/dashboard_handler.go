package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/psga/internal/dashboard"
	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	Summary(ctx context.Context, caller *mutation.Caller, today time.Time) (*dashboard.Summary, error)
}

// CourseLister は科目一覧を返す。repository.CourseRepositoryが実装する。
type CourseLister interface {
	List(ctx context.Context) ([]model.Course, error)
}

// DashboardHandler はダッシュボードと科目マスタのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
	courses CourseLister
	cache   ViewCache
	now     func() time.Time
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface, courses CourseLister, cache ViewCache) *DashboardHandler {
	return &DashboardHandler{service: service, courses: courses, cache: cache, now: time.Now}
}

// Summary はログインユーザー向けのサマリーを返す。
// GET /api/dashboard
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	cachedView(w, r, h.cache, "/dashboard?user="+caller.UserID, func(ctx context.Context) (any, error) {
		return h.service.Summary(ctx, caller, h.now())
	})
}

// Courses は科目一覧を返す。
// GET /api/courses
func (h *DashboardHandler) Courses(w http.ResponseWriter, r *http.Request) {
	cachedView(w, r, h.cache, "/courses", func(ctx context.Context) (any, error) {
		courses, err := h.courses.List(ctx)
		return nonNil(courses), err
	})
}
