package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type mockDeleter struct {
	deleteExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockDeleter) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now)
	}
	return 0, nil
}

var _ ExpiredTokenDeleter = (*mockDeleter)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRun_DeletesExpiredTokens(t *testing.T) {
	var gotNow time.Time
	repo := &mockDeleter{
		deleteExpiredFn: func(ctx context.Context, now time.Time) (int64, error) {
			gotNow = now
			return 3, nil
		},
	}

	job := NewCleanupJob(repo, discardLogger())
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !gotNow.Equal(fixed) {
		t.Errorf("now = %v, want %v", gotNow, fixed)
	}
}

func TestRun_NoExpiredTokens_IsIdempotent(t *testing.T) {
	repo := &mockDeleter{
		deleteExpiredFn: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, nil
		},
	}

	job := NewCleanupJob(repo, discardLogger())

	// 削除対象がなくても何度実行してもエラーにならない
	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("Run() #%d error = %v", i+1, err)
		}
	}
}

func TestRun_RepositoryError_ReturnsError(t *testing.T) {
	repo := &mockDeleter{
		deleteExpiredFn: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, errors.New("db down")
		},
	}

	job := NewCleanupJob(repo, discardLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when repository fails")
	}
}
