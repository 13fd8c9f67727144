// Package settlement は終了した目標の判定ジョブを提供する。
// 判定結果の記録と、有料目標のギフティコン当選者の抽選を行う。
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/raisedragon/raisedragon/internal/metrics"
	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
)

// Outcome は1件の目標判定の結果。
type Outcome struct {
	GoalID   string
	Result   model.GoalResult
	WinnerID string // 当選者がいない場合は空
	Skipped  bool   // 判定済み・未終了のためスキップした場合にtrue
}

// Settler は目標を1件ずつ独立したトランザクションで判定する。
type Settler struct {
	tx      repository.Transactor
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	pick    func(n int) int
}

// NewSettler はSettlerの新しいインスタンスを生成する。
func NewSettler(tx repository.Transactor, collector metrics.MetricsCollector, logger *slog.Logger) *Settler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Settler{
		tx:      tx,
		metrics: collector,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
		pick:    rand.IntN,
	}
}

// Settle は目標の成否を判定する。
// 作成者の認証が7件あれば成功、それ以外は失敗。
// 判定済みまたは未終了の目標は変更せずSkippedを返す（冪等）。
func (s *Settler) Settle(ctx context.Context, goalID string) (*Outcome, error) {
	outcome := &Outcome{GoalID: goalID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		// 並行実行される判定と競合しないよう行ロックを取る
		goal, err := repos.Goals().FindByIDForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		now := s.now()
		if goal == nil || !goal.IsProceeding() || !goal.HasEnded(now) {
			outcome.Skipped = true
			return nil
		}

		count, err := repos.GoalProofs().CountByGoalAndUser(ctx, goal.ID, goal.UserID)
		if err != nil {
			return err
		}
		outcome.Result = model.GoalResultFailure
		if count >= model.GoalDays {
			outcome.Result = model.GoalResultSuccess
		}
		if err := repos.Goals().UpdateResult(ctx, goal.ID, outcome.Result, now); err != nil {
			return err
		}

		if goal.Type != model.GoalTypeBilling {
			return nil
		}
		winner, err := s.drawWinner(ctx, repos, goal, outcome.Result, now)
		if err != nil {
			return err
		}
		if winner != nil {
			outcome.WinnerID = winner.UserID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle goal %s: %w", goalID, err)
	}

	if !outcome.Skipped {
		s.metrics.RecordGoalSettled(string(outcome.Result))
		s.logger.Info("目標の判定が完了しました",
			slog.String("goal_id", goalID),
			slog.String("result", string(outcome.Result)),
			slog.String("winner_id", outcome.WinnerID),
		)
	}
	return outcome, nil
}

// drawWinner は予想が的中したベット参加者から当選者を一様に1名選ぶ。
// ギフティコン未添付または的中者がいない場合はnilを返す。
func (s *Settler) drawWinner(ctx context.Context, repos repository.Repos, goal *model.Goal, result model.GoalResult, now time.Time) (*model.Winner, error) {
	link, err := repos.GoalGifticons().FindByGoalID(ctx, goal.ID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}

	bettings, err := repos.Bettings().ListByGoalID(ctx, goal.ID)
	if err != nil {
		return nil, err
	}
	var candidates []*model.Betting
	for _, b := range bettings {
		if b.Prediction.Matches(result) {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	chosen := candidates[s.pick(len(candidates))]
	winner := &model.Winner{
		ID:         s.newID(),
		GoalID:     goal.ID,
		UserID:     chosen.UserID,
		GifticonID: link.GifticonID,
		CreatedAt:  now,
	}
	if err := repos.Winners().Create(ctx, winner); err != nil {
		return nil, err
	}
	return winner, nil
}
