package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// sql.DBの部分集合として定義する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	TokenVerifier     middleware.TokenVerifier
	RevocationChecker middleware.RevocationChecker

	// メトリクス
	RejectionRecorder middleware.RejectionRecorder
	StatusObserver    func(statusCode int)
	MetricsHandler    http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// タスク
	TodoService TodoServiceInterface

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → StatusRecorder → Logging
//
// 認証エンドポイント（/api/auth/*）はIPベースのレート制限、
// 保護エンドポイント（/api/todos/*）はトークン検証とユーザーベースのレート制限を通過する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.StatusObserver != nil {
		r.Use(middleware.StatusRecorder(deps.StatusObserver))
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	todoHandler := NewTodoHandler(deps.TodoService)

	authMiddleware := middleware.NewAuthMiddleware(deps.TokenVerifier, deps.RevocationChecker, deps.RejectionRecorder)

	// --- 認証不要のルート ---

	// 認証エンドポイント（IPベースのレート制限）
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.Refresh)
		})

		// ログアウトはアクセストークン必須
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", authHandler.Logout)
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/todos", func(r chi.Router) {
			r.Post("/", todoHandler.CreateTodo)
			r.Get("/", todoHandler.ListTodos)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", todoHandler.GetTodo)
				r.Put("/", todoHandler.UpdateTodo)
				r.Delete("/", todoHandler.DeleteTodo)
				r.Patch("/complete", todoHandler.MarkCompleted)
			})
		})
	})

	// --- 運用エンドポイント ---

	r.Get("/health", healthHandler(deps.HealthChecker))

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	return r
}

// healthHandler はDB接続を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
