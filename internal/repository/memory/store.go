// Package memory はテスト用のインメモリリポジトリ実装を提供する。
// PostgreSQLの一意制約とトランザクションのロールバックを再現する。
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
)

type state struct {
	users         map[string]model.User
	refreshTokens map[string]model.RefreshToken // user_id
	goals         map[string]model.Goal
	goalProofs    map[string]model.GoalProof
	gifticons     map[string]model.Gifticon
	goalGifticons map[string]model.GoalGifticon // goal_id
	winners       map[string]model.Winner       // goal_id
	bettings      map[string]model.Betting
}

func newState() *state {
	return &state{
		users:         map[string]model.User{},
		refreshTokens: map[string]model.RefreshToken{},
		goals:         map[string]model.Goal{},
		goalProofs:    map[string]model.GoalProof{},
		gifticons:     map[string]model.Gifticon{},
		goalGifticons: map[string]model.GoalGifticon{},
		winners:       map[string]model.Winner{},
		bettings:      map[string]model.Betting{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		refreshTokens: maps.Clone(s.refreshTokens),
		goals:         maps.Clone(s.goals),
		goalProofs:    maps.Clone(s.goalProofs),
		gifticons:     maps.Clone(s.gifticons),
		goalGifticons: maps.Clone(s.goalGifticons),
		winners:       maps.Clone(s.winners),
		bettings:      maps.Clone(s.bettings),
	}
}

// Store はrepository.Transactorのインメモリ実装。
// トランザクションは直列に実行され、失敗時は開始前の状態に戻る。
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{st: newState()}
}

// WithinTx はfnを排他的に実行し、エラーまたはpanic時は変更を破棄する。
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(ctx, &repos{st: s.st})
}

// ReadOnly はfnを実行する。変更は常に破棄する。
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(ctx, &repos{st: s.st.clone()})
}

type repos struct {
	st *state
}

func (r *repos) Users() repository.UserRepository                 { return &userRepo{st: r.st} }
func (r *repos) RefreshTokens() repository.RefreshTokenRepository { return &refreshTokenRepo{st: r.st} }
func (r *repos) Goals() repository.GoalRepository                 { return &goalRepo{st: r.st} }
func (r *repos) GoalProofs() repository.GoalProofRepository       { return &goalProofRepo{st: r.st} }
func (r *repos) Gifticons() repository.GifticonRepository         { return &gifticonRepo{st: r.st} }
func (r *repos) GoalGifticons() repository.GoalGifticonRepository { return &goalGifticonRepo{st: r.st} }
func (r *repos) Winners() repository.WinnerRepository             { return &winnerRepo{st: r.st} }
func (r *repos) Bettings() repository.BettingRepository           { return &bettingRepo{st: r.st} }

// compile-time interface check
var _ repository.Transactor = (*Store)(nil)
