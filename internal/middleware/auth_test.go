package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/todoman/internal/model"
)

// --- モック定義 ---

type mockVerifier struct {
	verifyAccessFn func(token string) (string, error)
}

func (m *mockVerifier) VerifyAccess(token string) (string, error) {
	if m.verifyAccessFn != nil {
		return m.verifyAccessFn(token)
	}
	return "", model.NewInvalidTokenError()
}

type mockChecker struct {
	isRevokedFn func(ctx context.Context, token string) (bool, error)
}

func (m *mockChecker) IsRevoked(ctx context.Context, token string) (bool, error) {
	if m.isRevokedFn != nil {
		return m.isRevokedFn(ctx, token)
	}
	return false, nil
}

type mockRejectionRecorder struct {
	count int
}

func (m *mockRejectionRecorder) RecordRevokedRejection() {
	m.count++
}

var _ TokenVerifier = (*mockVerifier)(nil)
var _ RevocationChecker = (*mockChecker)(nil)
var _ RejectionRecorder = (*mockRejectionRecorder)(nil)

// okHandler は認証通過後のユーザーIDを返すテスト用ハンドラー。
func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext() error = %v", err)
		}
		w.Write([]byte(userID))
	})
}

// --- テスト ---

func TestAuthMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	verifier := &mockVerifier{
		verifyAccessFn: func(token string) (string, error) {
			return "user-1", nil
		},
	}
	mw := NewAuthMiddleware(verifier, &mockChecker{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mw(okHandler(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "user-1")
	}
}

func TestAuthMiddleware_MissingHeader_Returns401(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{}, &mockChecker{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_MalformedHeader_Returns401(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"スキームなし", "just-a-token"},
		{"別のスキーム", "Basic dXNlcjpwYXNz"},
		{"トークンなし", "Bearer "},
	}

	mw := NewAuthMiddleware(&mockVerifier{}, &mockChecker{}, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be reached")
			})).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_RevokedToken_Returns401AndRecordsRejection(t *testing.T) {
	verifier := &mockVerifier{
		verifyAccessFn: func(token string) (string, error) {
			t.Error("verifier should not be reached for revoked token")
			return "", nil
		},
	}
	checker := &mockChecker{
		isRevokedFn: func(ctx context.Context, token string) (bool, error) {
			return true, nil
		},
	}
	recorder := &mockRejectionRecorder{}
	mw := NewAuthMiddleware(verifier, checker, recorder)

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer revoked-token")
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if recorder.count != 1 {
		t.Errorf("rejection count = %d, want 1", recorder.count)
	}
}

func TestAuthMiddleware_RevocationCheckError_Returns401(t *testing.T) {
	// フェイルクローズド設定時、台帳エラーはここでエラーとして返される
	checker := &mockChecker{
		isRevokedFn: func(ctx context.Context, token string) (bool, error) {
			return false, errors.New("ledger unavailable")
		},
	}
	mw := NewAuthMiddleware(&mockVerifier{}, checker, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_Returns401WithJSONBody(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{}, &mockChecker{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}

func TestBearerToken_Extraction(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"標準形式", "Bearer abc123", "abc123", true},
		{"小文字スキーム", "bearer abc123", "abc123", true},
		{"ヘッダーなし", "", "", false},
		{"トークンなし", "Bearer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, ok := BearerToken(req)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestUserIDFromContext_WithoutUserID_ReturnsError(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for context without user ID")
	}
}
