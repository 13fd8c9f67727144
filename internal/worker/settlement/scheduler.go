package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raisedragon/raisedragon/internal/repository"
)

// GoalSettler は目標1件の判定インターフェース。
type GoalSettler interface {
	Settle(ctx context.Context, goalID string) (*Outcome, error)
}

// Scheduler は終了した目標を定期的に検出して判定する。
// semaphoreパターンで判定の並列数を制御する。
type Scheduler struct {
	tx             repository.Transactor
	settler        GoalSettler
	logger         *slog.Logger
	loc            *time.Location
	batchSize      int
	maxConcurrency int
	now            func() time.Time
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// batchSizeが0以下の場合はデフォルト値100を、loggerがnilの場合はslog.Default()を使用する。
func NewScheduler(tx repository.Transactor, settler GoalSettler, logger *slog.Logger, loc *time.Location, batchSize int) *Scheduler {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		tx:             tx,
		settler:        settler,
		logger:         logger,
		loc:            loc,
		batchSize:      batchSize,
		maxConcurrency: 4,
		now:            time.Now,
	}
}

// Start はcron式scheduleでRunOnceを定期実行する。
// 前回の実行が終わっていない場合はスキップする。ctxがキャンセルされるまでブロックする。
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLogger{logger: s.logger}),
		cron.WithChain(cron.Recover(cronLogger{logger: s.logger}), cron.SkipIfStillRunning(cronLogger{logger: s.logger})),
	)
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("判定サイクルの実行に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}); err != nil {
		return fmt.Errorf("invalid settlement schedule %q: %w", schedule, err)
	}

	c.Start()
	s.logger.Info("判定スケジューラを開始しました",
		slog.String("schedule", schedule),
		slog.Int("batch_size", s.batchSize),
	)

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("判定スケジューラを停止しました")
	return nil
}

// RunOnce は終了済みで判定前の目標を最大batchSize件取得し、並列に判定する。
// 判定に失敗した目標はログに残し、次のサイクルで再試行される。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()

	var goalIDs []string
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		goalIDs, err = repos.Goals().ListEndedProceeding(ctx, s.now(), s.batchSize)
		return err
	})
	if err != nil {
		return 0, err
	}

	if len(goalIDs) == 0 {
		s.logger.Info("判定対象の目標はありません")
		return 0, nil
	}

	s.logger.Info("判定サイクルを開始します",
		slog.Int("goal_count", len(goalIDs)),
	)

	sem := make(chan struct{}, s.maxConcurrency)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		settled int
	)

	for _, id := range goalIDs {
		wg.Add(1)
		sem <- struct{}{}

		go func(goalID string) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, err := s.settler.Settle(ctx, goalID)
			if err != nil {
				s.logger.Error("目標の判定に失敗しました",
					slog.String("goal_id", goalID),
					slog.String("error", err.Error()),
				)
				return
			}
			if !outcome.Skipped {
				mu.Lock()
				settled++
				mu.Unlock()
			}
		}(id)
	}

	wg.Wait()

	s.logger.Info("判定サイクルが完了しました",
		slog.Int("goal_count", len(goalIDs)),
		slog.Int("settled_count", settled),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return settled, nil
}

// cronLogger はcron.Loggerをslogに橋渡しする。
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
