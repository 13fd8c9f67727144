package repository

import (
	"context"
	"database/sql"
)

// PostgresStore はPostgreSQLに対するTransactorの実装。
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx はfnを読み書きトランザクション内で実行する。
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error {
	return WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, NewPostgresRepos(tx))
	})
}

// ReadOnly はfnを読み取り専用トランザクション内で実行する。
func (s *PostgresStore) ReadOnly(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error {
	return WithTx(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, NewPostgresRepos(tx))
	})
}

// postgresRepos はDBTXに束縛されたリポジトリ群。
type postgresRepos struct {
	db DBTX
}

// NewPostgresRepos はdbに束縛されたReposを返す。
func NewPostgresRepos(db DBTX) Repos {
	return &postgresRepos{db: db}
}

func (r *postgresRepos) Users() UserRepository {
	return NewPostgresUserRepo(r.db)
}

func (r *postgresRepos) RefreshTokens() RefreshTokenRepository {
	return NewPostgresRefreshTokenRepo(r.db)
}

func (r *postgresRepos) Goals() GoalRepository {
	return NewPostgresGoalRepo(r.db)
}

func (r *postgresRepos) GoalProofs() GoalProofRepository {
	return NewPostgresGoalProofRepo(r.db)
}

func (r *postgresRepos) Gifticons() GifticonRepository {
	return NewPostgresGifticonRepo(r.db)
}

func (r *postgresRepos) GoalGifticons() GoalGifticonRepository {
	return NewPostgresGoalGifticonRepo(r.db)
}

func (r *postgresRepos) Winners() WinnerRepository {
	return NewPostgresWinnerRepo(r.db)
}

func (r *postgresRepos) Bettings() BettingRepository {
	return NewPostgresBettingRepo(r.db)
}

// compile-time interface check
var _ Transactor = (*PostgresStore)(nil)
