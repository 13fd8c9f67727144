package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/raisedragon/raisedragon/internal/metrics"
	"github.com/raisedragon/raisedragon/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenParser       middleware.TokenParser
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer
	HealthChecker     HealthChecker
	// ExposeErrorDetail がtrueの場合、E500のdetailMessageにエラー内容を含める。
	ExposeErrorDetail bool
	// Location は日付入力を解釈するタイムゾーン。
	Location *time.Location

	// サービス
	AuthService         AuthServiceInterface
	UserService         UserServiceInterface
	GoalService         GoalServiceInterface
	GoalProofService    GoalProofServiceInterface
	GoalGifticonService GoalGifticonServiceInterface
	BettingService      BettingServiceInterface

	// アップロード
	Uploader      FileUploader
	UploadMaxSize int64
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS
//
// /v1 配下の認証不要ルートはRateLimit(General)をIP単位で適用する。
// 認証が必要なルートはAuth → RateLimit(General)の順に適用し、ユーザー単位で制限する。
// POST /v1/s3 にはアップロード専用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	}

	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Use(middleware.NewRecoveryMiddleware(deps.ExposeErrorDetail))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- 運用エンドポイント（レート制限なし） ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	resp := NewResponder(deps.ExposeErrorDetail)
	authHandler := NewAuthHandler(deps.AuthService, resp)
	userHandler := NewUserHandler(deps.UserService, resp)
	goalHandler := NewGoalHandler(deps.GoalService, resp, deps.Location)
	proofHandler := NewGoalProofHandler(deps.GoalProofService, resp)
	gifticonHandler := NewGoalGifticonHandler(deps.GoalGifticonService, resp)
	bettingHandler := NewBettingHandler(deps.BettingService, resp)
	uploadHandler := NewUploadHandler(deps.Uploader, resp, collector, deps.UploadMaxSize)

	requireAuth := middleware.NewAuthMiddleware(deps.TokenParser)

	r.Route("/v1", func(r chi.Router) {
		// --- 認証不要のルート（IP単位で制限） ---
		r.Group(func(r chi.Router) {
			r.Use(limiter.GeneralMiddleware())

			r.Post("/auth/oauth/kakao", authHandler.KakaoLogin)
			r.Post("/auth/token/refresh", authHandler.ReissueToken)
			r.Get("/user/nickname/duplicated", userHandler.IsNicknameDuplicated)
		})

		// --- 認証が必要なルート（ユーザー単位で制限） ---
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(limiter.GeneralMiddleware())

			// ユーザー
			r.Get("/user", userHandler.Retrieve)
			r.Delete("/user", userHandler.Delete)
			r.Put("/user/nickname", userHandler.UpdateNickname)
			r.Post("/user/deactivate", userHandler.Deactivate)

			// 目標
			r.Route("/goal", func(r chi.Router) {
				r.Post("/", goalHandler.Create)
				r.Get("/", goalHandler.List)

				r.Route("/{goalId}", func(r chi.Router) {
					r.Get("/", goalHandler.Retrieve)
					r.Delete("/", goalHandler.Delete)
					r.Get("/goal-proof", proofHandler.RetrieveAll)
					r.Get("/goal-proof/result", proofHandler.IsSuccess)
					r.Get("/betting", bettingHandler.List)
					r.Get("/winner", bettingHandler.Winner)
				})
			})

			// 目標認証
			r.Route("/goal-proof", func(r chi.Router) {
				r.Post("/", proofHandler.Create)
				r.Get("/{goalProofId}", proofHandler.Retrieve)
				r.Put("/{goalProofId}", proofHandler.Update)
			})

			// ギフティコン
			r.Route("/goal-gifticon", func(r chi.Router) {
				r.Post("/", gifticonHandler.Create)
				r.Get("/{goalId}", gifticonHandler.Retrieve)
				r.Put("/{goalId}", gifticonHandler.Update)
			})

			// ベッティング
			r.Post("/betting", bettingHandler.Create)

			// アップロード（専用レート制限を追加）
			r.With(limiter.UploadMiddleware()).Post("/s3", uploadHandler.Upload)
		})
	})

	return r
}
