// Package auth はKakao OAuthによるログインとJWTの発行・再発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raisedragon/raisedragon/internal/metrics"
	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
)

// maxNicknameAttempts はランダムニックネーム生成の試行回数上限。
const maxNicknameAttempts = 10

// OAuthVerifier はOAuthアクセストークンを検証し、プロバイダー上のユーザーIDを返す。
type OAuthVerifier interface {
	Verify(ctx context.Context, accessToken string) (string, error)
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	UserID             string
	Nickname           string
	AccessToken        string
	RefreshToken       string
	NicknameIsModified bool
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	tx       repository.Transactor
	verifier OAuthVerifier
	tokens   TokenProvider
	metrics  metrics.MetricsCollector

	now          func() time.Time
	nextNickname func() string
}

// NewService はServiceを生成する。collectorがnilの場合は記録しない。
func NewService(
	tx repository.Transactor,
	verifier OAuthVerifier,
	tokens TokenProvider,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		tx:           tx,
		verifier:     verifier,
		tokens:       tokens,
		metrics:      collector,
		now:          time.Now,
		nextNickname: func() string { return model.GenerateRandomNickname().String() },
	}
}

// KakaoLogin はKakaoアクセストークンでログインする。
// 未登録ユーザーはランダムニックネームで作成し、論理削除済みユーザーは再有効化する。
// いずれの場合も新しいトークンペアを発行し、リフレッシュトークンを上書き保存する。
func (s *Service) KakaoLogin(ctx context.Context, accessToken string) (*LoginResult, error) {
	kakaoID, err := s.verifier.Verify(ctx, accessToken)
	if err != nil {
		slog.Warn("kakao token verification failed", slog.String("error", err.Error()))
		return nil, model.NewUnauthorizedError("카카오 인증에 실패했습니다.")
	}

	var (
		result *LoginResult
		kind   string
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		now := s.now()
		user, err := repos.Users().FindByOAuthPayload(ctx, kakaoID)
		if err != nil {
			return err
		}

		switch {
		case user == nil:
			user, err = s.createUser(ctx, repos.Users(), kakaoID, now)
			if err != nil {
				return err
			}
			kind = metrics.LoginKindNew
		case !user.IsActive():
			if err := s.reactivate(ctx, repos.Users(), user, now); err != nil {
				return err
			}
			kind = metrics.LoginKindReactivated
		default:
			kind = metrics.LoginKindExisting
		}

		pair, err := s.issue(ctx, repos.RefreshTokens(), user.ID, now)
		if err != nil {
			return err
		}

		result = &LoginResult{
			UserID:             user.ID,
			Nickname:           user.Nickname.String(),
			AccessToken:        pair.AccessToken,
			RefreshToken:       pair.RefreshToken,
			NicknameIsModified: user.NicknameModified,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(kind)
	slog.Info("user logged in",
		slog.String("user_id", result.UserID),
		slog.String("kind", kind),
	)
	return result, nil
}

// createUser は利用中ユーザーと重複しないランダムニックネームでユーザーを作成する。
func (s *Service) createUser(ctx context.Context, users repository.UserRepository, kakaoID string, now time.Time) (*model.User, error) {
	nickname, err := s.freeNickname(ctx, users)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:                uuid.New().String(),
		OAuthTokenPayload: kakaoID,
		Nickname:          nickname,
		Status:            model.UserStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("nickname", user.Nickname.String()),
	)
	return user, nil
}

// reactivate は論理削除済みユーザーを利用中に戻す。
// 削除中に他のユーザーがニックネームを使い始めていた場合は新しいニックネームを割り当てる。
func (s *Service) reactivate(ctx context.Context, users repository.UserRepository, user *model.User, now time.Time) error {
	taken, err := users.ExistsByNickname(ctx, user.Nickname)
	if err != nil {
		return err
	}
	if taken {
		nickname, err := s.freeNickname(ctx, users)
		if err != nil {
			return err
		}
		if err := users.UpdateNickname(ctx, user.ID, nickname, false, now); err != nil {
			return err
		}
		user.Nickname = nickname
		user.NicknameModified = false
	}

	user.Reactivate(now)
	if err := users.UpdateStatus(ctx, user.ID, user.Status, now); err != nil {
		return err
	}

	slog.Info("user reactivated", slog.String("user_id", user.ID))
	return nil
}

func (s *Service) freeNickname(ctx context.Context, users repository.UserRepository) (model.Nickname, error) {
	for range maxNicknameAttempts {
		nickname, err := model.NewNickname(s.nextNickname())
		if err != nil {
			return "", err
		}
		taken, err := users.ExistsByNickname(ctx, nickname)
		if err != nil {
			return "", err
		}
		if !taken {
			return nickname, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique nickname after %d attempts", maxNicknameAttempts)
}

// ReissueToken は保存済みのリフレッシュトークンで新しいトークンペアを発行する。
func (s *Service) ReissueToken(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	var pair model.TokenPair
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		stored, err := repos.RefreshTokens().FindByPayload(ctx, refreshToken)
		if err != nil {
			return err
		}
		if stored == nil {
			return model.NewInvalidTokenError()
		}

		userID, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				return model.NewUnauthorizedError("")
			}
			return err
		}
		if userID != stored.UserID {
			return model.NewUnauthorizedError("")
		}

		user, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive() {
			return model.NewUnauthorizedError("")
		}

		pair, err = s.issue(ctx, repos.RefreshTokens(), userID, s.now())
		return err
	})
	if err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}

// issue はトークンペアを発行し、リフレッシュトークンを保存する。
func (s *Service) issue(ctx context.Context, tokens repository.RefreshTokenRepository, userID string, now time.Time) (model.TokenPair, error) {
	pair, err := s.tokens.Provide(userID)
	if err != nil {
		return model.TokenPair{}, err
	}
	err = tokens.Upsert(ctx, &model.RefreshToken{
		UserID:    userID,
		Payload:   pair.RefreshToken,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}
