package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/raisedragon/raisedragon/internal/auth"
	"github.com/raisedragon/raisedragon/internal/betting"
	"github.com/raisedragon/raisedragon/internal/config"
	"github.com/raisedragon/raisedragon/internal/database"
	"github.com/raisedragon/raisedragon/internal/goal"
	"github.com/raisedragon/raisedragon/internal/goalgifticon"
	"github.com/raisedragon/raisedragon/internal/goalproof"
	"github.com/raisedragon/raisedragon/internal/handler"
	"github.com/raisedragon/raisedragon/internal/logger"
	"github.com/raisedragon/raisedragon/internal/metrics"
	"github.com/raisedragon/raisedragon/internal/middleware"
	"github.com/raisedragon/raisedragon/internal/repository"
	"github.com/raisedragon/raisedragon/internal/security"
	"github.com/raisedragon/raisedragon/internal/storage"
	"github.com/raisedragon/raisedragon/internal/user"
	"github.com/raisedragon/raisedragon/internal/worker/cleanup"
	"github.com/raisedragon/raisedragon/internal/worker/settlement"
)

const (
	dbConnectTimeout = 10 * time.Second
	shutdownTimeout  = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. .envがあれば未設定の変数だけ補完し、環境変数から設定を読み込む
	if err := config.LoadDotEnv(config.DefaultDotEnvPath); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. PROFILEに応じたログレベルで再設定する
	logger.SetupDefault(w, logger.LevelForProfile(cfg.Profile))

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

	var migrateOpts MigrateOptions
	if cmd == CommandMigrate {
		opts, err := ParseMigrateOptions(args)
		if err != nil {
			return fmt.Errorf("invalid migrate arguments: %w", err)
		}
		migrateOpts = opts
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("profile", cfg.Profile),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, migrateOpts)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	server, release, err := newServer(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer release()

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

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
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// newServer はAPIサーバーの全依存関係を構築する。
// 戻り値のreleaseはサーバー停止後に呼び出す。
func newServer(ctx context.Context, cfg *config.Config, db *sql.DB) (*http.Server, func(), error) {
	// 1. リポジトリ
	store := repository.NewPostgresStore(db)

	// 2. セキュリティ
	sanitizer := security.NewTextSanitizer()
	ssrfGuard := security.NewSSRFGuard()
	if cfg.KakaoUserInfoURL != "" {
		if err := ssrfGuard.ValidateURL(cfg.KakaoUserInfoURL); err != nil {
			return nil, nil, fmt.Errorf("invalid KAKAO_USER_INFO_URL: %w", err)
		}
	}

	// 3. メトリクス
	registry := newRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 外部アダプタ
	verifier := auth.NewKakaoVerifier(auth.KakaoOAuthConfig{
		UserInfoURL: cfg.KakaoUserInfoURL,
		HTTPClient:  ssrfGuard.NewSafeClient(cfg.OAuthTimeout),
	})
	jwtAgent := auth.NewJWTAgent(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Endpoint:     cfg.S3Endpoint,
		PublicDomain: cfg.S3PublicDomain,
	})
	if err != nil {
		return nil, nil, err
	}

	// 5. アプリケーションサービス
	authService := auth.NewService(store, verifier, jwtAgent, collector)
	userService := user.NewService(store, sanitizer)
	goalService := goal.NewService(store, sanitizer, cfg.TimeZone)
	goalProofService := goalproof.NewService(store, sanitizer, collector, cfg.TimeZone)
	goalGifticonService := goalgifticon.NewService(store)
	bettingService := betting.NewService(store)

	// 6. ルーター
	limiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitUpload),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		TokenParser:       jwtAgent,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		Metrics:           collector,
		MetricsGatherer:   registry,
		HealthChecker:     db,
		ExposeErrorDetail: !cfg.IsProd(),
		Location:          cfg.TimeZone,

		AuthService:         authService,
		UserService:         userService,
		GoalService:         goalService,
		GoalProofService:    goalProofService,
		GoalGifticonService: goalGifticonService,
		BettingService:      bettingService,

		Uploader:      uploader,
		UploadMaxSize: cfg.UploadMaxSize,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server, limiter.Stop, nil
}

// runWorker はワーカーモードで起動する。
// 終了した目標の判定スケジューラと、期限切れリフレッシュトークンの削除ジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	store := repository.NewPostgresStore(db)
	registry := newRegistry()
	collector := metrics.NewCollector(registry)

	settler := settlement.NewSettler(store, collector, slog.Default())
	scheduler := settlement.NewScheduler(store, settler, slog.Default(), cfg.TimeZone, cfg.SettlementBatchSize)
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default(), cfg.RefreshTokenTTL)

	metricsServer := &http.Server{
		Addr:         ":" + cfg.WorkerMetricsPort,
		Handler:      newWorkerMux(registry, db),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		select {
		case <-stop:
			slog.Info("shutting down worker...")
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting",
		slog.String("settlement_schedule", cfg.SettlementSchedule),
		slog.Int("batch_size", cfg.SettlementBatchSize),
		slog.Duration("token_cleanup_interval", cfg.TokenCleanupInterval),
		slog.String("metrics_addr", metricsServer.Addr),
	)

	go cleanupJob.Start(ctx, cfg.TokenCleanupInterval)

	// 判定スケジューラをメインgoroutineで実行（ブロッキング）
	runErr := scheduler.Start(ctx, cfg.SettlementSchedule)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("worker metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if runErr != nil {
		return runErr
	}
	slog.Info("worker stopped gracefully")
	return nil
}

// newWorkerMux はワーカーが公開する/metricsと/healthのルーターを返す。
func newWorkerMux(gatherer prometheus.Gatherer, checker handler.HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handler.NewHealthHandler(checker))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	return r
}

// newRegistry はGoランタイムとプロセスのメトリクスを登録済みのレジストリを返す。
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// runMigrate はデータベースマイグレーションを実行する。
// opts.Downがfalseの場合は未適用マイグレーションを全て適用し、
// trueの場合は直近opts.Steps件を取り消す。
func runMigrate(cfg *config.Config, opts MigrateOptions) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		slog.Bool("down", opts.Down),
		slog.Int("steps", opts.Steps),
	)

	if opts.Down {
		if err := database.RollbackMigrations(cfg.DatabaseURL, opts.Steps); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
		slog.Info("database migrations rolled back successfully")
		return nil
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
