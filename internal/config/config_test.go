package config

import (
	"strings"
	"testing"
	"time"
)

// setRequiredEnv は必須環境変数を設定する。
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/todoman")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoad_MissingRequiredVars_ReturnsError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when required vars are missing")
	}

	// 欠落している変数名を全て列挙する
	for _, name := range []string{"DATABASE_URL", "ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 15m", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 168h", cfg.RefreshTokenTTL)
	}
	if cfg.RevocationFailMode != FailModeOpen {
		t.Errorf("RevocationFailMode = %v, want %v", cfg.RevocationFailMode, FailModeOpen)
	}
	if cfg.TokenCleanupInterval != time.Hour {
		t.Errorf("TokenCleanupInterval = %v, want 1h", cfg.TokenCleanupInterval)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitAuth != 10 {
		t.Errorf("RateLimitAuth = %d, want 10", cfg.RateLimitAuth)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
}

func TestLoad_CookieSecure_DerivedFromBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    bool
	}{
		{"httpsは Secure", "https://todoman.example.com", true},
		{"httpは非Secure", "http://localhost:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("BASE_URL", tt.baseURL)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.CookieSecure != tt.want {
				t.Errorf("CookieSecure = %v, want %v", cfg.CookieSecure, tt.want)
			}
		})
	}
}

func TestLoad_ParsesFailMode(t *testing.T) {
	tests := []struct {
		value string
		want  RevocationFailMode
	}{
		{"closed", FailModeClosed},
		{"CLOSED", FailModeClosed},
		{"open", FailModeOpen},
		{"bogus", FailModeOpen},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("REVOCATION_FAIL_MODE", tt.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.RevocationFailMode != tt.want {
				t.Errorf("RevocationFailMode = %v, want %v", cfg.RevocationFailMode, tt.want)
			}
		})
	}
}

func TestLoad_InvalidDurationAndInt_FallBackToDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_GENERAL", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 15m", cfg.AccessTokenTTL)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("COOKIE_DOMAIN", "todoman.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 5m", cfg.AccessTokenTTL)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.CookieDomain != "todoman.example.com" {
		t.Errorf("CookieDomain = %q", cfg.CookieDomain)
	}
}
