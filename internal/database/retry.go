package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const (
	// initialBackoff は接続リトライの初回遅延。
	initialBackoff = 500 * time.Millisecond
	// maxBackoff は接続リトライの最大遅延。
	maxBackoff = 8 * time.Second
)

// CalculateBackoff は失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回500ms、2倍ずつ増加、最大8秒。
func CalculateBackoff(failures int) time.Duration {
	delay := initialBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// PingWithRetry はデータベースが応答するまで指数バックオフでPingを繰り返す。
// attempts回失敗するか、ctxがキャンセルされた時点で最後のエラーを返す。
// コンテナ起動直後などDBの準備が整っていない場合を想定している。
func PingWithRetry(ctx context.Context, db *sql.DB, attempts int, timeout time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = Ping(ctx, db, timeout); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		delay := CalculateBackoff(i)
		slog.Warn("database is not ready, retrying",
			slog.Int("attempt", i+1),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("database ping aborted: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return err
}
