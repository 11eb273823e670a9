// Package auth はユーザー登録、ログイン、ログアウト、トークン更新の
// セッションライフサイクルを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 6

// TokenIssuer はセッションサービスが必要とするトークン発行インターフェース。
type TokenIssuer interface {
	// IssueAccess はアクセストークンを発行する。
	IssueAccess(userID string) (string, error)
	// IssueRefresh はリフレッシュトークンを発行する。
	IssueRefresh(userID string) (string, error)
	// VerifyRefresh はリフレッシュトークンを検証してユーザーIDを返す。
	VerifyRefresh(token string) (string, error)
	// DecodeExpiry は署名検証なしでトークンの失効時刻を取り出す。
	DecodeExpiry(token string) (time.Time, error)
}

// RevocationLedger はセッションサービスが必要とする失効台帳インターフェース。
type RevocationLedger interface {
	// Blacklist はトークンを失効済みとして記録する。
	Blacklist(ctx context.Context, token, userID string, expiresAt time.Time) error
}

// MetricsRecorder は認証メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordRegistration()
	RecordLogin(success bool)
	RecordTokenIssued(tokenType string)
}

// Result は認証成功時の結果。
// RefreshTokenはHTTP Only Cookieでのみクライアントに渡し、
// JSONボディには含めない。
type Result struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users   repository.UserRepository
	issuer  TokenIssuer
	ledger  RevocationLedger
	metrics MetricsRecorder
	now     func() time.Time
}

// NewService はServiceを生成する。
// metricsはnil可（テスト用）。nowがnilの場合はtime.Now（UTC）を使用する。
func NewService(users repository.UserRepository, issuer TokenIssuer, ledger RevocationLedger, metrics MetricsRecorder, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		users:   users,
		issuer:  issuer,
		ledger:  ledger,
		metrics: metrics,
		now:     now,
	}
}

// Register は新規ユーザーを登録し、アクセストークンとリフレッシュトークンを発行する。
// メールアドレスが登録済みの場合はDUPLICATE_USERエラーを返す。
func (s *Service) Register(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, model.NewDuplicateUserError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.recordRegistration()
	slog.Info("user registered", slog.String("user_id", user.ID))

	return result, nil
}

// Login はメールアドレスとパスワードで認証し、トークンを発行する。
// ユーザー不在とパスワード不一致は同一のINVALID_CREDENTIALSエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordLogin(false)
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLogin(false)
		return nil, model.NewInvalidCredentialsError()
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.recordLogin(true)
	slog.Info("user logged in", slog.String("user_id", user.ID))

	return result, nil
}

// Logout はアクセストークンを失効台帳に登録する。
// トークンの失効時刻は署名検証なしで取り出す（リクエストゲートを通過済みのため）。
// 台帳への書き込みに失敗した場合はLOGOUT_FAILEDエラーを返す。
func (s *Service) Logout(ctx context.Context, accessToken, userID string) error {
	expiresAt, err := s.issuer.DecodeExpiry(accessToken)
	if err != nil {
		slog.Error("failed to decode token expiry for logout",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return model.NewLogoutFailedError()
	}

	if err := s.ledger.Blacklist(ctx, accessToken, userID, expiresAt); err != nil {
		slog.Error("failed to blacklist token",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return model.NewLogoutFailedError()
	}

	slog.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// Refresh はリフレッシュトークンを検証し、新しいアクセストークンのみを発行する。
// リフレッシュトークンのローテーションは行わない。
// 署名・期限の検証失敗、またはサブジェクトがユーザーに解決できない場合は
// INVALID_TOKENエラーを返す。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return "", model.NewInvalidTokenError()
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewInvalidTokenError()
	}

	accessToken, err := s.issuer.IssueAccess(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	s.recordTokenIssued("access")
	return accessToken, nil
}

// issueTokens はアクセストークンとリフレッシュトークンのペアを発行する。
func (s *Service) issueTokens(user *model.User) (*Result, error) {
	accessToken, err := s.issuer.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err := s.issuer.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	s.recordTokenIssued("access")
	s.recordTokenIssued("refresh")

	return &Result{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// normalizeEmail はメールアドレスを小文字化し前後の空白を除去する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateCredentials は登録時のメールアドレスとパスワードを検証する。
func validateCredentials(email, password string) error {
	if email == "" {
		return model.NewValidationError("メールアドレスは必須です")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if len(password) < minPasswordLength {
		return model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で指定してください", minPasswordLength))
	}
	return nil
}

func (s *Service) recordRegistration() {
	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
}

func (s *Service) recordLogin(success bool) {
	if s.metrics != nil {
		s.metrics.RecordLogin(success)
	}
}

func (s *Service) recordTokenIssued(tokenType string) {
	if s.metrics != nil {
		s.metrics.RecordTokenIssued(tokenType)
	}
}
