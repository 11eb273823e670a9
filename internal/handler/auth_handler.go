// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// refreshTokenCookieName はリフレッシュトークンを保持するCookie名。
const refreshTokenCookieName = "refreshToken"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録しトークンペアを発行する。
	Register(ctx context.Context, email, password string) (*auth.Result, error)
	// Login は認証に成功したユーザーへトークンペアを発行する。
	Login(ctx context.Context, email, password string) (*auth.Result, error)
	// Logout はアクセストークンを失効台帳に登録する。
	Logout(ctx context.Context, accessToken, userID string) error
	// Refresh はリフレッシュトークンから新しいアクセストークンを発行する。
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain       string
	CookieSecure       bool
	RefreshTokenMaxAge int // リフレッシュトークンCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// --- リクエスト・レスポンス型 ---

// credentialsRequest は登録・ログインリクエストのボディ。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest はトークン更新リクエストのボディ。
// Cookieが使えないクライアント向けの代替手段。
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// authResponse は認証成功のレスポンス。
// リフレッシュトークンはCookieでのみ渡し、ボディには含めない。
type authResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}

// accessTokenResponse はトークン更新のレスポンス。
type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// Register は新規ユーザー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setRefreshTokenCookie(w, result.RefreshToken)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(authResponse{
		User:        toUserResponse(result.User),
		AccessToken: result.AccessToken,
	})
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setRefreshTokenCookie(w, result.RefreshToken)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(authResponse{
		User:        toUserResponse(result.User),
		AccessToken: result.AccessToken,
	})
}

// Logout はログアウトを処理する。
// POST /api/auth/logout（認証必須）
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	token, ok := middleware.BearerToken(r)
	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("トークンが指定されていません"))
		return
	}

	if err := h.service.Logout(r.Context(), token, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	// リフレッシュトークンCookieをクリア
	h.clearRefreshTokenCookie(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messageResponse{Message: "ログアウトしました。"})
}

// Refresh は新しいアクセストークンの発行を処理する。
// リフレッシュトークンはCookieまたはボディから受け取る。
// POST /api/auth/refresh-token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := ""
	if cookie, err := r.Cookie(refreshTokenCookieName); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accessTokenResponse{AccessToken: accessToken})
}

// setRefreshTokenCookie はリフレッシュトークンをHTTP Only Cookieとして設定する。
// SameSite=StrictかつHTTP Onlyで、本番（https）ではSecure属性を付与する。
func (h *AuthHandler) setRefreshTokenCookie(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    refreshToken,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.RefreshTokenMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshTokenCookie はリフレッシュトークンCookieを削除する。
func (h *AuthHandler) clearRefreshTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
// パスワードハッシュは決してレスポンスに含めない。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Email: user.Email,
	}
}
