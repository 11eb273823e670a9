package revocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/todoman/internal/config"
)

// MetricsRecorder は失効台帳のメトリクス記録インターフェース。
type MetricsRecorder interface {
	// RecordRevocation は失効の記録に使用されたバックエンドを記録する。
	RecordRevocation(backend string)
}

// Ledger はトークン失効台帳。
// 高速ストア（Redis）が設定されていれば優先し、呼び出しごとに
// 到達性を評価してPostgreSQLフォールバックに切り替える。
// 到達性はキャッシュしないため、Redisが途中から利用可能になった場合も
// コード変更なしで高速パスに復帰する。
type Ledger struct {
	fast     Store // nilの場合は高速パス無効
	durable  Store
	failMode config.RevocationFailMode
	metrics  MetricsRecorder
	now      func() time.Time
}

// LedgerOption はLedgerの生成オプション。
type LedgerOption func(*Ledger)

// WithMetrics はメトリクスレコーダーを設定する。
func WithMetrics(m MetricsRecorder) LedgerOption {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock は現在時刻の取得関数を設定する。テスト用。
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger はLedgerを生成する。
// fastがnilの場合は常にdurableを使用する。
func NewLedger(fast, durable Store, failMode config.RevocationFailMode, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		fast:     fast,
		durable:  durable,
		failMode: failMode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Blacklist はトークンを失効済みとして記録する。
// トークンが既に自然失効している場合（残存時間が0以下）は何もせず成功する。
// 高速ストアへの書き込みに失敗した場合はフォールバックに書き込み、
// 両方失敗した場合のみエラーを返す。
func (l *Ledger) Blacklist(ctx context.Context, token, userID string, expiresAt time.Time) error {
	if !expiresAt.After(l.now()) {
		return nil
	}

	if l.fast != nil {
		err := l.fast.Add(ctx, token, userID, expiresAt)
		if err == nil {
			l.recordRevocation("redis")
			return nil
		}
		slog.Warn("fast revocation store unavailable, falling back to durable store",
			slog.String("error", err.Error()),
		)
	}

	if err := l.durable.Add(ctx, token, userID, expiresAt); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	l.recordRevocation("postgres")
	return nil
}

// IsRevoked はトークンが失効済みかどうかを返す。
// 高速ストアの参照に失敗した場合はフォールバックを参照する。
// フォールバックの参照にも失敗した場合はフェイルモードに従う:
//   - FailModeOpen: エラーを握りつぶし「失効していない」を返す（可用性優先）
//   - FailModeClosed: エラーを返し、呼び出し側がリクエストを拒否する
func (l *Ledger) IsRevoked(ctx context.Context, token string) (bool, error) {
	if l.fast != nil {
		revoked, err := l.fast.Contains(ctx, token)
		if err == nil {
			return revoked, nil
		}
		slog.Warn("fast revocation store unavailable, falling back to durable store",
			slog.String("error", err.Error()),
		)
	}

	revoked, err := l.durable.Contains(ctx, token)
	if err != nil {
		if l.failMode == config.FailModeClosed {
			return false, fmt.Errorf("revocation check failed: %w", err)
		}
		slog.Error("revocation check failed, treating token as not revoked",
			slog.String("error", err.Error()),
		)
		return false, nil
	}
	return revoked, nil
}

func (l *Ledger) recordRevocation(backend string) {
	if l.metrics != nil {
		l.metrics.RecordRevocation(backend)
	}
}
