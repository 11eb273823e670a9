// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/todoman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// token.Issuerの部分集合として定義する。
type TokenVerifier interface {
	VerifyAccess(token string) (string, error)
}

// RevocationChecker はトークン失効の照会に必要なインターフェース。
// revocation.Ledgerの部分集合として定義する。
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RejectionRecorder は失効トークンによるリクエスト拒否のメトリクス記録インターフェース。
type RejectionRecorder interface {
	RecordRevokedRejection()
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証する
// ミドルウェアを返す。検証順序:
//  1. トークン抽出（なければ401）
//  2. 失効台帳の照会（失効済みなら401）
//  3. 署名・期限の検証（不正なら401）
//
// 通過したリクエストには認証済みユーザーIDをコンテキストに注入する。
func NewAuthMiddleware(verifier TokenVerifier, checker RevocationChecker, metrics RejectionRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			tokenString, ok := BearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. 失効台帳の照会
			// フェイルクローズド設定時は台帳エラーもここで拒否される
			revoked, err := checker.IsRevoked(r.Context(), tokenString)
			if err != nil {
				slog.Error("failed to check token revocation",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if revoked {
				if metrics != nil {
					metrics.RecordRevokedRejection()
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. 署名・期限の検証
			userID, err := verifier.VerifyAccess(tokenString)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 認証済みユーザーIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
