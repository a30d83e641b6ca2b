package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/psga/internal/auth"
	"github.com/hitoshi/psga/internal/cache"
	"github.com/hitoshi/psga/internal/cashflow"
	"github.com/hitoshi/psga/internal/config"
	"github.com/hitoshi/psga/internal/dashboard"
	"github.com/hitoshi/psga/internal/database"
	"github.com/hitoshi/psga/internal/group"
	"github.com/hitoshi/psga/internal/handler"
	"github.com/hitoshi/psga/internal/logger"
	"github.com/hitoshi/psga/internal/metrics"
	"github.com/hitoshi/psga/internal/middleware"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/profile"
	"github.com/hitoshi/psga/internal/repository"
	"github.com/hitoshi/psga/internal/schedule"
	"github.com/hitoshi/psga/internal/security"
	"github.com/hitoshi/psga/internal/task"
	"github.com/hitoshi/psga/internal/validate"
	"github.com/hitoshi/psga/internal/worker/cleanup"
)

// cachePurgeSchedule はビューキャッシュの期限切れエントリを掃除する間隔。
const cachePurgeSchedule = "@every 1m"

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envと環境変数から設定を読み込む
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandRollback:
		return runRollback(cfg)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	accountRepo := repository.NewPostgresAccountRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)
	scheduleRepo := repository.NewPostgresScheduleRepo(db)
	cashRepo := repository.NewPostgresCashFlowRepo(db)
	groupRepo := repository.NewPostgresGroupRepo(db)
	memberRepo := repository.NewPostgresGroupMemberRepo(db)
	courseRepo := repository.NewPostgresCourseRepo(db)

	// 3. メトリクスとビューキャッシュ
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)
	viewCache := cache.NewViewCache(cfg.ViewCacheTTL, collector)

	// 4. 書き込みエンジンと共有コンポーネント
	engine := mutation.NewEngine(viewCache, collector, slog.Default())
	validator := validate.New()
	sanitizer := security.NewTextSanitizer()
	urlGuard := security.NewURLGuard()

	// 5. ドメインサービスの初期化
	authService := auth.NewService(accountRepo, profileRepo, sessionRepo, validator, sanitizer, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		BcryptCost:    cfg.BcryptCost,
	})
	taskService := task.NewService(taskRepo, engine, validator, sanitizer)
	scheduleService := schedule.NewService(scheduleRepo, engine, validator, sanitizer)
	cashService := cashflow.NewService(cashRepo, engine, validator, sanitizer)
	groupService := group.NewService(groupRepo, memberRepo, engine, validator, sanitizer)
	profileService := profile.NewService(profileRepo, engine, validator, sanitizer,
		urlGuard, urlGuard.NewSafeClient(cfg.AvatarFetchTimeout),
		profile.Config{BaseURL: cfg.BaseURL, AvatarMaxSize: cfg.AvatarMaxSize},
	)
	dashboardService := dashboard.NewService(profileRepo, taskRepo, scheduleRepo, cashRepo)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth))
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		StatusObserver:    collector,
		SessionResolver:   authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,
		HSTS:        cfg.CookieSecure,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),
		ViewCache:      viewCache,
		AvatarMaxSize:  cfg.AvatarMaxSize,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		TaskService:      taskService,
		ScheduleService:  scheduleService,
		CashFlowService:  cashService,
		GroupService:     groupService,
		ProfileService:   profileService,
		DashboardService: dashboardService,
		CourseLister:     courseRepo,
	}

	router := handler.NewRouter(deps)

	// 7. ビューキャッシュの掃除ジョブ
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scheduler := cleanup.NewScheduler(slog.Default(), collector)
	if err := scheduler.Add(cachePurgeSchedule, cleanup.NewCachePurgeJob(viewCache, slog.Default())); err != nil {
		return err
	}
	schedulerDone := make(chan struct{})
	go func() {
		scheduler.Start(ctx)
		close(schedulerDone)
	}()

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		cancel()
		<-schedulerDone
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-schedulerDone

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの削除を起動直後に1回実行し、以降はCLEANUP_SCHEDULEに従って実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// ワーカーは独立したプロセスのため、自前のレジストリに記録する
	collector := metrics.NewCollector(prometheus.NewRegistry())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scheduler := cleanup.NewScheduler(slog.Default(), collector)
	sessionCleanup := cleanup.NewSessionCleanupJob(repository.NewPostgresSessionRepo(db), slog.Default())
	if err := scheduler.Add(cfg.CleanupSchedule, sessionCleanup); err != nil {
		return err
	}

	// 起動直後に1回実行（失敗してもワーカーは継続する）
	_ = scheduler.RunNow(ctx, sessionCleanup)

	slog.Info("worker starting", slog.String("cleanup_schedule", cfg.CleanupSchedule))
	scheduler.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runRollback は直近のマイグレーションを1つ戻す。
func runRollback(cfg *config.Config) error {
	slog.Warn("rolling back the latest migration",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	slog.Info("migration rolled back")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
