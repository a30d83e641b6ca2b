package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/psga/internal/middleware"
)

// formOverhead はアバター画像以外のフォーム項目とマルチパート境界に見込む余裕。
const formOverhead = 1 << 20

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	StatusObserver    middleware.StatusObserver
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	HSTS              bool

	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	ViewCache      ViewCache
	AvatarMaxSize  int64

	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	TaskService      TaskServiceInterface
	ScheduleService  ScheduleServiceInterface
	CashFlowService  CashFlowServiceInterface
	GroupService     GroupServiceInterface
	ProfileService   ProfileServiceInterface
	DashboardService DashboardServiceInterface
	CourseLister     CourseLister
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Logging → Recovery → SecurityHeaders → CORS → RequestSize → CSRF
//	  → (/api/*, /auth/me) Session → RateLimit(General)
//	  → (/auth/register, /auth/login) RateLimit(Auth)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusObserver))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(chimw.RequestSize(deps.AvatarMaxSize + formOverhead))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	taskHandler := NewTaskHandler(deps.TaskService, deps.ViewCache)
	scheduleHandler := NewScheduleHandler(deps.ScheduleService, deps.ViewCache)
	cashHandler := NewCashFlowHandler(deps.CashFlowService, deps.ViewCache)
	groupHandler := NewGroupHandler(deps.GroupService, deps.ViewCache)
	profileHandler := NewProfileHandler(deps.ProfileService, deps.ViewCache, deps.AvatarMaxSize)
	dashboardHandler := NewDashboardHandler(deps.DashboardService, deps.CourseLister, deps.ViewCache)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})
		r.Post("/logout", authHandler.Logout)

		r.With(middleware.NewSessionMiddleware(deps.SessionResolver)).Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/dashboard", dashboardHandler.Summary)
		r.Get("/courses", dashboardHandler.Courses)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", scheduleHandler.List)
			r.Post("/", scheduleHandler.Create)
			r.Put("/{id}", scheduleHandler.Update)
			r.Delete("/{id}", scheduleHandler.Delete)
		})

		r.Route("/cashflow", func(r chi.Router) {
			r.Get("/", cashHandler.List)
			r.Post("/", cashHandler.Create)
			r.Get("/summary", cashHandler.Summary)
			r.Put("/{id}", cashHandler.Update)
			r.Delete("/{id}", cashHandler.Delete)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.List)
			r.Post("/", groupHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", groupHandler.Get)
				r.Post("/members", groupHandler.AddMember)
				r.Put("/members/{userID}", groupHandler.UpdateMemberRole)
				r.Delete("/members/{userID}", groupHandler.RemoveMember)
			})
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Put("/", profileHandler.Update)
			r.Put("/avatar", profileHandler.UploadAvatar)
			r.Post("/avatar/import", profileHandler.ImportAvatar)
		})

		r.Get("/profiles", profileHandler.ListMembers)
		r.Get("/profiles/{id}/avatar", profileHandler.Avatar)
	})

	return r
}
