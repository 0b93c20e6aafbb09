package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/tastebuddiez/internal/middleware"
)

// HealthChecker はヘルスチェックでデータストアの疎通を確認するためのインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder      middleware.SessionFinder
	CORSAllowedOrigins []string
	CSRFConfig         middleware.CSRFConfig
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 出品
	DiscoveryService DiscoveryServiceInterface
	ListingService   ListingServiceInterface
	MealConfig       MealHandlerConfig
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → SecurityHeaders → CORS
//	  公開ルート:   RateLimit(General)
//	  認証ルート:   Session → CSRF → RateLimit(General) [→ RateLimit(ListingCreation)]
//
// /health と /metrics はレート制限の対象外とする。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	mealHandler := NewMealHandler(deps.DiscoveryService, deps.ListingService, deps.MealConfig, logger)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得エンドポイント（認証不要）
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig, logger).ServeHTTP)

	// --- 認証不要のルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/meals", mealHandler.ListMeals)
		r.Get("/api/meals/{id}", mealHandler.GetMeal)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig, logger))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/meals/my/recommendations", mealHandler.Recommend)
		r.Get("/api/meals/my/listings", mealHandler.ListMyMeals)

		// POST /api/meals - 出品作成（作成専用レート制限を追加）
		r.With(deps.RateLimiter.ListingCreationMiddleware()).Post("/api/meals", mealHandler.CreateMeal)
	})

	return r
}

// healthHandler はデータストアへの疎通を確認し、結果を返すハンドラーを生成する。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
