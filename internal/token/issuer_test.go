package token

import (
	"testing"
	"time"

	"github.com/hitoshi/todoman/internal/model"
)

// testConfig はテスト用のIssuerConfigを返す。
func testConfig(now func() time.Time) IssuerConfig {
	return IssuerConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    7 * 24 * time.Hour,
		Now:           now,
	}
}

func TestNewIssuer_MissingAccessSecret_ReturnsConfigError(t *testing.T) {
	cfg := testConfig(nil)
	cfg.AccessSecret = ""

	_, err := NewIssuer(cfg)
	if err == nil {
		t.Fatal("expected error for missing access secret")
	}

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeTokenConfig {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeTokenConfig)
	}
}

func TestNewIssuer_MissingRefreshSecret_ReturnsConfigError(t *testing.T) {
	cfg := testConfig(nil)
	cfg.RefreshSecret = ""

	_, err := NewIssuer(cfg)
	if err == nil {
		t.Fatal("expected error for missing refresh secret")
	}
}

func TestIssueAccess_VerifyAccess_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer(testConfig(nil))
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	tokenString, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	userID, err := issuer.VerifyAccess(tokenString)
	if err != nil {
		t.Fatalf("VerifyAccess() error = %v", err)
	}
	if userID != "user-1" {
		t.Errorf("VerifyAccess() = %q, want %q", userID, "user-1")
	}
}

func TestVerifyAccess_RefreshToken_Fails(t *testing.T) {
	// アクセストークンとリフレッシュトークンは別シークレットで署名されるため、
	// リフレッシュトークンをアクセストークンとして使うことはできない
	issuer, err := NewIssuer(testConfig(nil))
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	refreshToken, err := issuer.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}

	if _, err := issuer.VerifyAccess(refreshToken); err == nil {
		t.Error("expected error when verifying refresh token as access token")
	}
}

func TestVerifyAccess_ExpiredToken_Fails(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer(testConfig(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	tokenString, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	// TTL以内は検証に成功する
	current = current.Add(14 * time.Minute)
	if _, err := issuer.VerifyAccess(tokenString); err != nil {
		t.Fatalf("VerifyAccess() before expiry error = %v", err)
	}

	// TTLを過ぎると検証に失敗する
	current = current.Add(2 * time.Minute)
	_, err = issuer.VerifyAccess(tokenString)
	if err == nil {
		t.Fatal("expected error for expired token")
	}

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidToken {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidToken)
	}
}

func TestVerifyAccess_WrongSecret_Fails(t *testing.T) {
	issuer, err := NewIssuer(testConfig(nil))
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	otherCfg := testConfig(nil)
	otherCfg.AccessSecret = "different-secret"
	other, err := NewIssuer(otherCfg)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	tokenString, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	if _, err := other.VerifyAccess(tokenString); err == nil {
		t.Error("expected error when verifying with wrong secret")
	}
}

func TestVerifyAccess_MalformedToken_Fails(t *testing.T) {
	issuer, err := NewIssuer(testConfig(nil))
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	if _, err := issuer.VerifyAccess("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestDecodeExpiry_ReturnsExpiryWithoutVerification(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer(testConfig(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	tokenString, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	expiry, err := issuer.DecodeExpiry(tokenString)
	if err != nil {
		t.Fatalf("DecodeExpiry() error = %v", err)
	}

	want := now.Add(15 * time.Minute)
	if !expiry.Equal(want) {
		t.Errorf("DecodeExpiry() = %v, want %v", expiry, want)
	}
}

func TestDecodeExpiry_MalformedToken_Fails(t *testing.T) {
	issuer, err := NewIssuer(testConfig(nil))
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	if _, err := issuer.DecodeExpiry("garbage"); err == nil {
		t.Error("expected error for malformed token")
	}
}
