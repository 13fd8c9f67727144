package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/raisedragon/raisedragon/internal/model"
)

// PostgresRefreshTokenRepo はPostgreSQLを使用したリフレッシュトークンリポジトリ。
type PostgresRefreshTokenRepo struct {
	db DBTX
}

// NewPostgresRefreshTokenRepo はPostgresRefreshTokenRepoを生成する。
func NewPostgresRefreshTokenRepo(db DBTX) *PostgresRefreshTokenRepo {
	return &PostgresRefreshTokenRepo{db: db}
}

func (r *PostgresRefreshTokenRepo) findOne(ctx context.Context, query string, arg string) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&token.UserID, &token.Payload, &token.CreatedAt, &token.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return token, nil
}

// FindByPayload はトークン文字列で検索する。見つからない場合はnilを返す。
func (r *PostgresRefreshTokenRepo) FindByPayload(ctx context.Context, payload string) (*model.RefreshToken, error) {
	return r.findOne(ctx,
		`SELECT user_id, payload, created_at, updated_at FROM refresh_tokens WHERE payload = $1`,
		payload,
	)
}

// FindByUserID はユーザーのトークンを取得する。見つからない場合はnilを返す。
func (r *PostgresRefreshTokenRepo) FindByUserID(ctx context.Context, userID string) (*model.RefreshToken, error) {
	return r.findOne(ctx,
		`SELECT user_id, payload, created_at, updated_at FROM refresh_tokens WHERE user_id = $1`,
		userID,
	)
}

// Upsert はユーザーのトークンを作成または上書きする。
func (r *PostgresRefreshTokenRepo) Upsert(ctx context.Context, token *model.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, payload, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		token.UserID, token.Payload, token.CreatedAt, token.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert refresh token: %w", err)
	}
	return nil
}

// PurgeByUser はユーザーのトークンを削除する。
func (r *PostgresRefreshTokenRepo) PurgeByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to purge refresh tokens: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RefreshTokenRepository = (*PostgresRefreshTokenRepo)(nil)
