// Package goalgifticon は有料目標へのギフティコン添付を提供する。
package goalgifticon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
)

// Attached は目標に添付されたギフティコン。
type Attached struct {
	Link     *model.GoalGifticon
	Gifticon *model.Gifticon
}

// Service はギフティコン添付のサービス層。
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

// CreateAndUploadGifticon はアップロード済みURLからギフティコンを作成し目標に添付する。
// 開始前の有料目標に対して、作成者本人が1回だけ添付できる。
func (s *Service) CreateAndUploadGifticon(ctx context.Context, userID, goalID, uploadedURL string) (*Attached, error) {
	url, err := model.NewURL(uploadedURL)
	if err != nil {
		return nil, err
	}

	var attached *Attached
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		goal, err := repos.Goals().FindByIDForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if goal == nil {
			return model.NewGoalNotFoundError()
		}

		now := s.now()
		switch {
		case goal.HasStarted(now):
			return model.NewGifticonAfterStartError()
		case goal.Type == model.GoalTypeFree:
			return model.NewGifticonOnFreeGoalError()
		case !goal.IsOwnedBy(userID):
			return model.NewGifticonNotCreatorError()
		}

		existing, err := repos.GoalGifticons().FindByGoalID(ctx, goalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.NewGifticonAlreadyAttachedError()
		}

		gifticon := &model.Gifticon{
			ID:          s.newID(),
			UserID:      userID,
			URL:         url,
			IsValidated: true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repos.Gifticons().Create(ctx, gifticon); err != nil {
			return err
		}
		link := &model.GoalGifticon{
			ID:         s.newID(),
			GoalID:     goalID,
			GifticonID: gifticon.ID,
			CreatedAt:  now,
		}
		if err := repos.GoalGifticons().Create(ctx, link); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return model.NewGifticonAlreadyAttachedError()
			}
			return err
		}

		attached = &Attached{Link: link, Gifticon: gifticon}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("gifticon attached",
		slog.String("goal_id", goalID),
		slog.String("gifticon_id", attached.Gifticon.ID),
	)
	return attached, nil
}

// RetrieveByGoalID は目標のギフティコンを返す。
// 閲覧できるのは目標の作成者と当選者のみ。
func (s *Service) RetrieveByGoalID(ctx context.Context, goalID, userID string) (*Attached, error) {
	var attached *Attached
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		goal, err := repos.Goals().FindByID(ctx, goalID)
		if err != nil {
			return err
		}
		if goal == nil {
			return model.NewGoalNotFoundError()
		}

		if !goal.IsOwnedBy(userID) {
			won, err := repos.Winners().ExistsByGoalAndUser(ctx, goalID, userID)
			if err != nil {
				return err
			}
			if !won {
				return model.NewGifticonInaccessibleError()
			}
		}

		attached, err = findAttached(ctx, repos, goalID)
		if err != nil {
			return err
		}
		if attached == nil {
			return model.NewGifticonInaccessibleError()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attached, nil
}

// UpdateGifticonURLByGoalID は目標に添付されたギフティコンのURLを差し替える。
func (s *Service) UpdateGifticonURLByGoalID(ctx context.Context, goalID, userID, newURL string) (*Attached, error) {
	url, err := model.NewURL(newURL)
	if err != nil {
		return nil, err
	}

	var attached *Attached
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		goal, err := repos.Goals().FindByID(ctx, goalID)
		if err != nil {
			return err
		}
		if goal == nil {
			return model.NewGoalNotFoundError()
		}
		if !goal.IsOwnedBy(userID) {
			return model.NewBadRequestError("")
		}

		attached, err = findAttached(ctx, repos, goalID)
		if err != nil {
			return err
		}
		if attached == nil {
			return model.NewGoalGifticonNotFoundError()
		}

		now := s.now()
		if goal.HasEnded(now) {
			return model.NewGoalEndedError()
		}
		if err := repos.Gifticons().UpdateURL(ctx, attached.Gifticon.ID, url, now); err != nil {
			return err
		}
		attached.Gifticon.URL = url
		attached.Gifticon.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attached, nil
}

// findAttached は目標の紐付けとギフティコンを取得する。紐付けがない場合はnilを返す。
func findAttached(ctx context.Context, repos repository.Repos, goalID string) (*Attached, error) {
	link, err := repos.GoalGifticons().FindByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}
	gifticon, err := repos.Gifticons().FindByID(ctx, link.GifticonID)
	if err != nil {
		return nil, err
	}
	if gifticon == nil {
		return nil, nil
	}
	return &Attached{Link: link, Gifticon: gifticon}, nil
}
