// Package betting は他人の目標への成否予想と当選者の参照を提供する。
package betting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
)

// Service はベッティングのサービス層。
type Service struct {
	tx    repository.Transactor
	now   func() time.Time
	newID func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(tx repository.Transactor) *Service {
	return &Service{
		tx:    tx,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create は目標の開始前に成否を予想する。1ユーザー1目標につき1回まで。
func (s *Service) Create(ctx context.Context, userID, goalID, rawPrediction string) (*model.Betting, error) {
	prediction, err := model.ParsePrediction(rawPrediction)
	if err != nil {
		return nil, err
	}

	var betting *model.Betting
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		goal, err := findGoal(ctx, repos, goalID)
		if err != nil {
			return err
		}
		if goal.IsOwnedBy(userID) {
			return model.NewBetOnOwnGoalError()
		}
		now := s.now()
		if goal.HasStarted(now) {
			return model.NewBetAfterStartError()
		}

		existing, err := repos.Bettings().FindByGoalAndUser(ctx, goalID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.NewDuplicateBettingError()
		}

		betting = &model.Betting{
			ID:         s.newID(),
			UserID:     userID,
			GoalID:     goalID,
			Prediction: prediction,
			CreatedAt:  now,
		}
		if err := repos.Bettings().Create(ctx, betting); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return model.NewDuplicateBettingError()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return betting, nil
}

// ListByGoal は目標へのベットを作成順に返す。
func (s *Service) ListByGoal(ctx context.Context, goalID string) ([]*model.Betting, error) {
	bettings := []*model.Betting{}
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		if _, err := findGoal(ctx, repos, goalID); err != nil {
			return err
		}
		list, err := repos.Bettings().ListByGoalID(ctx, goalID)
		if err != nil {
			return err
		}
		bettings = append(bettings, list...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bettings, nil
}

// RetrieveWinner は判定済み目標の当選者を返す。
func (s *Service) RetrieveWinner(ctx context.Context, goalID string) (*model.Winner, error) {
	var winner *model.Winner
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		if _, err := findGoal(ctx, repos, goalID); err != nil {
			return err
		}
		var err error
		winner, err = repos.Winners().FindByGoalID(ctx, goalID)
		if err != nil {
			return err
		}
		if winner == nil {
			return model.NewWinnerNotFoundError()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return winner, nil
}

func findGoal(ctx context.Context, repos repository.Repos, goalID string) (*model.Goal, error) {
	goal, err := repos.Goals().FindByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError()
	}
	return goal, nil
}
