// Package revocation はトークン失効台帳を提供する。
//
// 台帳は2種類のバックエンドを組み合わせる:
//   - Redis: ネイティブなTTL付きキーによる高速ストア（優先）
//   - PostgreSQL: expires_atカラムと掃除ジョブによる永続フォールバック
//
// どちらのバックエンドでも、エントリがトークンの自然失効より長く
// 生存することはない。
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/todoman/internal/repository"
)

// Store は失効トークンの記録と照会の能力を表す。
// バックエンドの選択はLedgerが呼び出しごとに行う。
type Store interface {
	// Add はトークンを失効済みとして記録する。
	Add(ctx context.Context, token, userID string, expiresAt time.Time) error
	// Contains はトークンが失効済みかどうかを返す。
	Contains(ctx context.Context, token string) (bool, error)
}

// blacklistKeyPrefix はRedisキーのプレフィックス。
const blacklistKeyPrefix = "blacklist:"

// RedisStore はRedisを使用した失効トークンストア。
// キーのTTLにトークンの残存時間を設定し、失効後は自動削除される。
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore はRedisStoreを生成する。
// nowがnilの場合はtime.Nowを使用する。
func NewRedisStore(client *redis.Client, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, now: now}
}

// Add はトークンをTTL付きキーとして記録する。
// TTLは expiresAt - now。0以下の場合は既に失効済みのため何もしない。
func (s *RedisStore) Add(ctx context.Context, token, userID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.SetEx(ctx, blacklistKeyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set blacklist key: %w", err)
	}
	return nil
}

// Contains はキーの存在を確認する。TTL切れのキーは存在しない。
func (s *RedisStore) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist key: %w", err)
	}
	return n > 0, nil
}

// PostgresStore はPostgreSQLを使用した失効トークンストア。
// Redisが利用できない場合の永続フォールバック。
type PostgresStore struct {
	repo repository.RevokedTokenRepository
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(repo repository.RevokedTokenRepository) *PostgresStore {
	return &PostgresStore{repo: repo}
}

// Add は失効トークンレコードを永続化する。
// レコードにはトークンの自然失効時刻を保持し、期限切れレコードは掃除ジョブが削除する。
func (s *PostgresStore) Add(ctx context.Context, token, userID string, expiresAt time.Time) error {
	return s.repo.Create(ctx, token, userID, expiresAt)
}

// Contains は未失効期限のレコードが存在するかを返す。
func (s *PostgresStore) Contains(ctx context.Context, token string) (bool, error) {
	return s.repo.Exists(ctx, token)
}

// compile-time interface checks
var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
