package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, todo, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDuplicateUser      = "DUPLICATE_USER"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeLogoutFailed       = "LOGOUT_FAILED"
	ErrCodeTokenConfig        = "TOKEN_CONFIG"
	ErrCodeTodoNotFound       = "TODO_NOT_FOUND"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewDuplicateUserError は登録済みメールアドレスでの再登録エラーを生成する。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致で同一メッセージを返し、
// エラーメッセージからのユーザー列挙を防ぐ。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidTokenError は無効なトークンエラーを生成する。
// 署名不正、期限切れ、サブジェクト解決不能のいずれでも同一のエラーを返す。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewLogoutFailedError はログアウト処理失敗エラーを生成する。
func NewLogoutFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLogoutFailed,
		Message:  "ログアウト処理に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTokenConfigError はトークン署名シークレット未設定エラーを生成する。
func NewTokenConfigError(which string) *APIError {
	return &APIError{
		Code:     ErrCodeTokenConfig,
		Message:  fmt.Sprintf("トークン署名シークレットが設定されていません: %s", which),
		Category: "system",
		Action:   "サーバーの環境変数設定を確認してください。",
	}
}

// NewTodoNotFoundError はタスク未検出エラーを生成する。
func NewTodoNotFoundError(todoID string) *APIError {
	return &APIError{
		Code:     ErrCodeTodoNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", todoID),
		Category: "todo",
		Action:   "タスクIDを確認してください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
