// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
	"github.com/raisedragon/raisedragon/internal/security"
)

// purgeStep は退会時に削除する依存データの1段階。
type purgeStep struct {
	name  string
	purge func(repos repository.Repos) func(ctx context.Context, userID string) error
}

// purgeSteps は外部キー制約を満たす削除順序。
// 参照する側から順に消し、最後にユーザー本体を消す。
var purgeSteps = []purgeStep{
	{"bettings", func(r repository.Repos) func(context.Context, string) error { return r.Bettings().PurgeByUser }},
	{"winners", func(r repository.Repos) func(context.Context, string) error { return r.Winners().PurgeByUser }},
	{"goal_proofs", func(r repository.Repos) func(context.Context, string) error { return r.GoalProofs().PurgeByUser }},
	{"goal_gifticons", func(r repository.Repos) func(context.Context, string) error { return r.GoalGifticons().PurgeByUser }},
	{"gifticons", func(r repository.Repos) func(context.Context, string) error { return r.Gifticons().PurgeByUser }},
	{"goals", func(r repository.Repos) func(context.Context, string) error { return r.Goals().PurgeByUser }},
	{"refresh_tokens", func(r repository.Repos) func(context.Context, string) error { return r.RefreshTokens().PurgeByUser }},
}

// Service はユーザー管理のサービス層。
type Service struct {
	tx        repository.Transactor
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(tx repository.Transactor, sanitizer security.TextSanitizer) *Service {
	return &Service{
		tx:        tx,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Retrieve は利用中のユーザーを取得する。
func (s *Service) Retrieve(ctx context.Context, userID string) (*model.User, error) {
	var user *model.User
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		user, err = findActive(ctx, repos.Users(), userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateNickname はニックネームを変更し、変更済みフラグを立てる。
func (s *Service) UpdateNickname(ctx context.Context, userID, raw string) (*model.User, error) {
	nickname, err := model.NewNickname(s.sanitizer.Sanitize(raw))
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		user, err = findActive(ctx, repos.Users(), userID)
		if err != nil {
			return err
		}
		if user.Nickname == nickname {
			return nil
		}

		taken, err := repos.Users().ExistsByNickname(ctx, nickname)
		if err != nil {
			return err
		}
		if taken {
			return model.NewDuplicateNicknameError()
		}

		now := s.now()
		if err := repos.Users().UpdateNickname(ctx, userID, nickname, true, now); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return model.NewDuplicateNicknameError()
			}
			return err
		}
		user.Nickname = nickname
		user.NicknameModified = true
		user.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// IsNicknameDuplicated は利用中ユーザーがニックネームを使っているかを返す。
func (s *Service) IsNicknameDuplicated(ctx context.Context, raw string) (bool, error) {
	nickname, err := model.NewNickname(s.sanitizer.Sanitize(raw))
	if err != nil {
		return false, err
	}

	var taken bool
	err = s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		taken, err = repos.Users().ExistsByNickname(ctx, nickname)
		return err
	})
	return taken, err
}

// Deactivate はユーザーを論理削除し、リフレッシュトークンを破棄する。
// 次回のKakaoログインで再有効化される。
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		user, err := findActive(ctx, repos.Users(), userID)
		if err != nil {
			return err
		}

		now := s.now()
		user.Deactivate(now)
		if err := repos.Users().UpdateStatus(ctx, userID, user.Status, now); err != nil {
			return err
		}
		if err := repos.RefreshTokens().PurgeByUser(ctx, userID); err != nil {
			return err
		}

		slog.Info("ユーザーを休眠状態にしました", slog.String("user_id", userID))
		return nil
	})
}

// Delete はユーザーと全ての依存データを物理削除する。
// 進行中の目標がある場合は拒否する。全段階を1トランザクションで実行する。
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		user, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return model.NewUserNotFoundError()
		}

		proceeding, err := repos.Goals().ExistsProceedingByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if proceeding {
			return model.NewProceedingGoalOnDeleteError()
		}

		slog.Info("退会処理を開始します", slog.String("user_id", userID))

		for _, step := range purgeSteps {
			if err := step.purge(repos)(ctx, userID); err != nil {
				return fmt.Errorf("failed to purge %s: %w", step.name, err)
			}
		}
		if err := repos.Users().DeleteByID(ctx, userID); err != nil {
			return err
		}

		slog.Info("退会処理が完了しました", slog.String("user_id", userID))
		return nil
	})
}

func findActive(ctx context.Context, users repository.UserRepository, userID string) (*model.User, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive() {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
