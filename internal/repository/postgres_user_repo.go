package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db DBTX
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db DBTX) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, COALESCE(oauth_token_payload, ''), COALESCE(fcm_token_payload, ''),
	nickname, nickname_modified, status, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var nickname, status string
	err := row.Scan(
		&user.ID, &user.OAuthTokenPayload, &user.FCMTokenPayload,
		&nickname, &user.NicknameModified, &status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Nickname = model.Nickname(nickname)
	user.Status = model.UserStatus(status)
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByOAuthPayload はKakaoユーザーIDでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByOAuthPayload(ctx context.Context, payload string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE oauth_token_payload = $1`,
		payload,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by oauth payload: %w", err)
	}
	return user, nil
}

// ExistsByNickname は利用中ユーザーの中にニックネームが存在するかを返す。
func (r *PostgresUserRepo) ExistsByNickname(ctx context.Context, nickname model.Nickname) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE nickname = $1 AND status = 'ACTIVE')`,
		nickname.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check nickname: %w", err)
	}
	return exists, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, oauth_token_payload, fcm_token_payload, nickname, nickname_modified, status, created_at, updated_at)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		user.ID, user.OAuthTokenPayload, user.FCMTokenPayload, user.Nickname.String(),
		user.NicknameModified, string(user.Status), user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateNickname はニックネームと変更済みフラグを更新する。
func (r *PostgresUserRepo) UpdateNickname(ctx context.Context, id string, nickname model.Nickname, modified bool, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET nickname = $2, nickname_modified = $3, updated_at = $4 WHERE id = $1`,
		id, nickname.String(), modified, updatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update nickname: %w", err)
	}
	return nil
}

// UpdateStatus はユーザーの状態を更新する。
func (r *PostgresUserRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), updatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 依存データは呼び出し側で先に削除しておく必要がある。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
