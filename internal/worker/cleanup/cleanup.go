// Package cleanup は失効トークンレコードの自動削除ジョブを提供する。
// expires_atを過ぎた失効トークンは照会時に既に無視されるため、
// このジョブはテーブルサイズを抑えるための定期的な掃除として動作する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredTokenDeleter は期限切れ失効レコードの削除インターフェース。
// repository.RevokedTokenRepositoryの部分集合として定義する。
type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CleanupJob は期限切れ失効トークンの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	repo   ExpiredTokenDeleter
	logger *slog.Logger
	now    func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(repo ExpiredTokenDeleter, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Run はexpires_atを過ぎた失効トークンレコードを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.repo.DeleteExpired(ctx, j.now())
	if err != nil {
		j.logger.Error("失効トークンクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("失効トークンクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("失効トークンクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
