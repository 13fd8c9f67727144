// Package goal は目標の作成・参照・削除を提供する。
package goal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
	"github.com/raisedragon/raisedragon/internal/security"
)

// CreateInput は目標作成の入力。
type CreateInput struct {
	UserID    string
	Type      string
	Content   string
	StartDate time.Time
}

// Service は目標のサービス層。
type Service struct {
	tx        repository.Transactor
	sanitizer security.TextSanitizer
	loc       *time.Location
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
// locは開始日を判定する暦日のタイムゾーン。
func NewService(tx repository.Transactor, sanitizer security.TextSanitizer, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		tx:        tx,
		sanitizer: sanitizer,
		loc:       loc,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create は7日間の目標を作成する。
// 開始日はloc上の0時に正規化され、今日より前の日付は受け付けない。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Goal, error) {
	goalType, err := model.ParseGoalType(in.Type)
	if err != nil {
		return nil, err
	}
	content := s.sanitizer.Sanitize(in.Content)
	if content == "" {
		return nil, model.NewBlankContentError()
	}

	now := s.now()
	if model.DaysBetween(model.CalendarDate(now, s.loc), model.CalendarDate(in.StartDate, s.loc)) < 0 {
		return nil, model.NewInvalidStartDateError()
	}
	y, m, d := in.StartDate.In(s.loc).Date()
	startDate := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	goal := model.NewGoal(s.newID(), in.UserID, goalType, content, startDate, now)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		proceeding, err := repos.Goals().ExistsProceedingByUserID(ctx, in.UserID)
		if err != nil {
			return err
		}
		if proceeding {
			return model.NewProceedingGoalExistsError()
		}
		return repos.Goals().Create(ctx, goal)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("goal created",
		slog.String("goal_id", goal.ID),
		slog.String("user_id", goal.UserID),
		slog.String("type", string(goal.Type)),
	)
	return goal, nil
}

// Retrieve は目標を取得する。
func (s *Service) Retrieve(ctx context.Context, goalID string) (*model.Goal, error) {
	var goal *model.Goal
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		goal, err = findGoal(ctx, repos, goalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// ListByUser はユーザーの目標を開始日の新しい順に返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		goals, err = repos.Goals().ListByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []*model.Goal{}
	}
	return goals, nil
}

// Delete は開始前の目標を削除する。
// 目標へのベット、ギフティコンとの紐付け、ギフティコン本体も合わせて削除する。
func (s *Service) Delete(ctx context.Context, goalID, userID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		goal, err := repos.Goals().FindByIDForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if goal == nil {
			return model.NewGoalNotFoundError()
		}
		if !goal.IsOwnedBy(userID) {
			return model.NewGoalInaccessibleError()
		}
		if goal.HasStarted(s.now()) {
			return model.NewGoalAlreadyStartedError()
		}

		if err := repos.Bettings().DeleteByGoalID(ctx, goalID); err != nil {
			return err
		}
		link, err := repos.GoalGifticons().FindByGoalID(ctx, goalID)
		if err != nil {
			return err
		}
		if link != nil {
			if err := repos.GoalGifticons().DeleteByGoalID(ctx, goalID); err != nil {
				return err
			}
			if err := repos.Gifticons().DeleteByID(ctx, link.GifticonID); err != nil {
				return err
			}
		}
		if err := repos.GoalProofs().DeleteByGoalID(ctx, goalID); err != nil {
			return err
		}
		if err := repos.Goals().DeleteByID(ctx, goalID); err != nil {
			return err
		}

		slog.Info("goal deleted", slog.String("goal_id", goalID), slog.String("user_id", userID))
		return nil
	})
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
