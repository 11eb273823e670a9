package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresRevokedTokenRepo はPostgreSQLを使用した失効トークンリポジトリ。
// Redisが利用できない環境での失効台帳のフォールバックとして機能する。
type PostgresRevokedTokenRepo struct {
	db *sql.DB
}

// NewPostgresRevokedTokenRepo はPostgresRevokedTokenRepoを生成する。
func NewPostgresRevokedTokenRepo(db *sql.DB) *PostgresRevokedTokenRepo {
	return &PostgresRevokedTokenRepo{db: db}
}

// Create は失効トークンレコードを作成する。
// 同一トークンの再失効はON CONFLICT DO NOTHINGで冪等に成功する。
func (r *PostgresRevokedTokenRepo) Create(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO NOTHING`,
		token, userID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert revoked token: %w", err)
	}
	return nil
}

// Exists は未失効期限のレコードが存在するかを返す。
// 掃除ジョブの実行前でも期限切れレコードはヒットしない。
func (r *PostgresRevokedTokenRepo) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token = $1 AND expires_at > now())`,
		token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return exists, nil
}

// DeleteExpired はexpires_atを過ぎたレコードを削除し、削除件数を返す。
func (r *PostgresRevokedTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired revoked tokens: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ RevokedTokenRepository = (*PostgresRevokedTokenRepo)(nil)
