// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("duplicate record")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	// 論理削除済みのユーザーも返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByOAuthPayload はKakaoユーザーIDでユーザーを検索する。見つからない場合はnilを返す。
	FindByOAuthPayload(ctx context.Context, payload string) (*model.User, error)

	// ExistsByNickname は利用中ユーザーの中にニックネームが存在するかを返す。
	ExistsByNickname(ctx context.Context, nickname model.Nickname) (bool, error)

	// Create はユーザーを作成する。一意制約違反時はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateNickname はニックネームと変更済みフラグを更新する。
	// 一意制約違反時はErrDuplicateを返す。
	UpdateNickname(ctx context.Context, id string, nickname model.Nickname, modified bool, updatedAt time.Time) error

	// UpdateStatus はユーザーの状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.UserStatus, updatedAt time.Time) error

	// DeleteByID は指定IDのユーザーを物理削除する。
	DeleteByID(ctx context.Context, id string) error
}

// RefreshTokenRepository はリフレッシュトークンの永続化インターフェース。
type RefreshTokenRepository interface {
	// FindByPayload はトークン文字列で検索する。見つからない場合はnilを返す。
	FindByPayload(ctx context.Context, payload string) (*model.RefreshToken, error)

	// FindByUserID はユーザーのトークンを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.RefreshToken, error)

	// Upsert はユーザーのトークンを作成または上書きする。
	Upsert(ctx context.Context, token *model.RefreshToken) error

	// PurgeByUser はユーザーのトークンを削除する。冪等。
	PurgeByUser(ctx context.Context, userID string) error
}

// GoalRepository は目標の永続化インターフェース。
type GoalRepository interface {
	// FindByID は指定IDの目標を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Goal, error)

	// FindByIDForUpdate は行ロックを取得して目標を取得する。
	FindByIDForUpdate(ctx context.Context, id string) (*model.Goal, error)

	// ListByUserID はユーザーの目標を開始日の降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Goal, error)

	// ExistsProceedingByUserID はユーザーに判定前の目標があるかを返す。
	ExistsProceedingByUserID(ctx context.Context, userID string) (bool, error)

	// ListEndedProceeding はnow時点で終了済みかつ判定前の目標IDを最大limit件返す。
	ListEndedProceeding(ctx context.Context, now time.Time, limit int) ([]string, error)

	// Create は目標を作成する。
	Create(ctx context.Context, goal *model.Goal) error

	// UpdateResult は目標の判定結果を更新する。
	UpdateResult(ctx context.Context, id string, result model.GoalResult, updatedAt time.Time) error

	// DeleteByID は指定IDの目標を削除する。
	DeleteByID(ctx context.Context, id string) error

	// PurgeByUser はユーザーが作成した目標を全て削除する。冪等。
	PurgeByUser(ctx context.Context, userID string) error
}

// GoalProofRepository は目標認証の永続化インターフェース。
type GoalProofRepository interface {
	// FindByID は指定IDの認証を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.GoalProof, error)

	// ListByGoalID は目標の認証を認証日の昇順で返す。
	ListByGoalID(ctx context.Context, goalID string) ([]*model.GoalProof, error)

	// ExistsByGoalAndDate は同一目標・同一日の認証が存在するかを返す。
	ExistsByGoalAndDate(ctx context.Context, goalID string, proofDate time.Time) (bool, error)

	// CountByGoalAndUser は目標に対するユーザーの認証件数を返す。
	CountByGoalAndUser(ctx context.Context, goalID, userID string) (int, error)

	// Create は認証を作成する。同一目標・同一日の重複はErrDuplicateを返す。
	Create(ctx context.Context, proof *model.GoalProof) error

	// Update は認証のURLとコメントを更新する。
	Update(ctx context.Context, proof *model.GoalProof) error

	// DeleteByGoalID は目標の認証を全て削除する。
	DeleteByGoalID(ctx context.Context, goalID string) error

	// PurgeByUser はユーザーが作成した認証と、ユーザーの目標に対する認証を削除する。冪等。
	PurgeByUser(ctx context.Context, userID string) error
}

// GifticonRepository はギフティコンの永続化インターフェース。
type GifticonRepository interface {
	// FindByID は指定IDのギフティコンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Gifticon, error)

	// Create はギフティコンを作成する。
	Create(ctx context.Context, gifticon *model.Gifticon) error

	// UpdateURL はギフティコンのURLを更新する。
	UpdateURL(ctx context.Context, id string, url model.URL, updatedAt time.Time) error

	// DeleteByID は指定IDのギフティコンを削除する。
	DeleteByID(ctx context.Context, id string) error

	// PurgeByUser はユーザーがアップロードしたギフティコンを削除する。冪等。
	PurgeByUser(ctx context.Context, userID string) error
}

// GoalGifticonRepository は目標とギフティコンの紐付けの永続化インターフェース。
type GoalGifticonRepository interface {
	// FindByGoalID は目標の紐付けを取得する。見つからない場合はnilを返す。
	FindByGoalID(ctx context.Context, goalID string) (*model.GoalGifticon, error)

	// Create は紐付けを作成する。既に紐付けがある場合はErrDuplicateを返す。
	Create(ctx context.Context, link *model.GoalGifticon) error

	// DeleteByGoalID は目標の紐付けを削除する。
	DeleteByGoalID(ctx context.Context, goalID string) error

	// PurgeByUser はユーザーの目標またはギフティコンに関わる紐付けを削除する。冪等。
	PurgeByUser(ctx context.Context, userID string) error
}

// WinnerRepository は当選者の永続化インターフェース。
type WinnerRepository interface {
	// FindByGoalID は目標の当選者を取得する。見つからない場合はnilを返す。
	FindByGoalID(ctx context.Context, goalID string) (*model.Winner, error)

	// ExistsByGoalAndUser はユーザーが目標の当選者かを返す。
	ExistsByGoalAndUser(ctx context.Context, goalID, userID string) (bool, error)

	// Create は当選者を記録する。
	Create(ctx context.Context, winner *model.Winner) error

	// PurgeByUser はユーザーが当選者である記録と、ユーザーの目標・ギフティコンに関わる記録を削除する。冪等。
	PurgeByUser(ctx context.Context, userID string) error
}

// BettingRepository はベッティングの永続化インターフェース。
type BettingRepository interface {
	// FindByGoalAndUser はユーザーの目標へのベットを取得する。見つからない場合はnilを返す。
	FindByGoalAndUser(ctx context.Context, goalID, userID string) (*model.Betting, error)

	// ListByGoalID は目標へのベットを作成順に返す。
	ListByGoalID(ctx context.Context, goalID string) ([]*model.Betting, error)

	// Create はベットを作成する。同一ユーザー・同一目標の重複はErrDuplicateを返す。
	Create(ctx context.Context, betting *model.Betting) error

	// DeleteByGoalID は目標へのベットを全て削除する。
	DeleteByGoalID(ctx context.Context, goalID string) error

	// PurgeByUser はユーザーのベットと、ユーザーの目標へのベットを削除する。冪等。
	PurgeByUser(ctx context.Context, userID string) error
}

// Repos は同一の接続またはトランザクションに束縛されたリポジトリ群。
type Repos interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	Goals() GoalRepository
	GoalProofs() GoalProofRepository
	Gifticons() GifticonRepository
	GoalGifticons() GoalGifticonRepository
	Winners() WinnerRepository
	Bettings() BettingRepository
}

// Transactor はアプリケーションサービスのトランザクション境界を提供する。
type Transactor interface {
	// WithinTx はfnを読み書きトランザクション内で実行する。
	// fnがエラーを返すかpanicした場合はロールバックする。
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error

	// ReadOnly はfnを読み取り専用トランザクション内で実行する。
	ReadOnly(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
