// Package cleanup は期限切れリフレッシュトークンの定期削除ジョブを提供する。
// 最終更新からトークンの有効期間を過ぎた行は再発行に使えないため、
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CleanupJob は期限切れリフレッシュトークンの削除ジョブ。
// 冪等であり、削除対象がなくてもエラーにならない。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger
	// TokenTTL はリフレッシュトークンの有効期間。これより古い行を削除する。
	TokenTTL time.Duration
	now      func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger, tokenTTL time.Duration) *CleanupJob {
	return &CleanupJob{
		db:       db,
		logger:   logger,
		TokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Run はupdated_atがTokenTTLより古いリフレッシュトークンを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.now().Add(-j.TokenTTL)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE updated_at < $1`,
		cutoff,
	)
	if err != nil {
		j.logger.Error("リフレッシュトークンのクリーンアップに失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("token_ttl", j.TokenTTL),
		)
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	j.logger.Info("リフレッシュトークンのクリーンアップが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回実行し、以降intervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。失敗はログに記録して次回に持ち越す。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
