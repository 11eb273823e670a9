// Package token はJWTアクセストークン・リフレッシュトークンの発行と検証を提供する。
//
// アクセストークンとリフレッシュトークンは別々のシークレットで署名される。
// 片方のシークレットが漏洩してももう一方のトークンを偽造できないようにするため。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/todoman/internal/model"
)

// Claims はトークンに埋め込むクレーム。
// 標準クレームとユーザーIDのみを保持する。
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// IssuerConfig はIssuerの設定。
type IssuerConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration

	// Now は現在時刻の取得関数。テストでの時計シミュレーション用。
	// nilの場合はtime.Now（UTC）を使用する。
	Now func() time.Time
}

// Issuer はJWTの発行と検証を行う。
// 副作用を持たず、入力と設定済みシークレットと時計のみに依存する。
type Issuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer はIssuerを生成する。
// いずれかのシークレットが未設定の場合はTOKEN_CONFIGエラーを返す。
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.AccessSecret == "" {
		return nil, model.NewTokenConfigError("ACCESS_TOKEN_SECRET")
	}
	if cfg.RefreshSecret == "" {
		return nil, model.NewTokenConfigError("REFRESH_TOKEN_SECRET")
	}

	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		now:           now,
	}, nil
}

// IssueAccess はユーザーIDを埋め込んだアクセストークンを発行する。
// 有効期限は now + AccessTTL。
func (i *Issuer) IssueAccess(userID string) (string, error) {
	return i.sign(userID, i.accessSecret, i.accessTTL)
}

// IssueRefresh はユーザーIDを埋め込んだリフレッシュトークンを発行する。
// 有効期限は now + RefreshTTL。アクセストークンとは別のシークレットで署名する。
func (i *Issuer) IssueRefresh(userID string) (string, error) {
	return i.sign(userID, i.refreshSecret, i.refreshTTL)
}

// VerifyAccess はアクセストークンを検証し、埋め込まれたユーザーIDを返す。
func (i *Issuer) VerifyAccess(tokenString string) (string, error) {
	return i.verify(tokenString, i.accessSecret)
}

// VerifyRefresh はリフレッシュトークンを検証し、埋め込まれたユーザーIDを返す。
func (i *Issuer) VerifyRefresh(tokenString string) (string, error) {
	return i.verify(tokenString, i.refreshSecret)
}

// DecodeExpiry は署名検証なしでトークンの失効時刻を取り出す。
// ログアウト時の失効台帳登録用。対象トークンはリクエストゲートの
// 検証を既に通過しているため、ここでの再検証は行わない。
func (i *Issuer) DecodeExpiry(tokenString string) (time.Time, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// sign はHS256でトークンを署名する。
func (i *Issuer) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	tokenString, err := t.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// verify はトークンを検証してユーザーIDを返す。
// 署名不正・期限切れ・アルゴリズム不一致はいずれもINVALID_TOKENエラーになる。
func (i *Issuer) verify(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)

	t, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !t.Valid {
		return "", model.NewInvalidTokenError()
	}

	return claims.UserID, nil
}
