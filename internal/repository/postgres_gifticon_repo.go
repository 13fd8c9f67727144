package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
)

// PostgresGifticonRepo はPostgreSQLを使用したギフティコンリポジトリ。
type PostgresGifticonRepo struct {
	db DBTX
}

// NewPostgresGifticonRepo はPostgresGifticonRepoを生成する。
func NewPostgresGifticonRepo(db DBTX) *PostgresGifticonRepo {
	return &PostgresGifticonRepo{db: db}
}

// FindByID は指定IDのギフティコンを取得する。見つからない場合はnilを返す。
func (r *PostgresGifticonRepo) FindByID(ctx context.Context, id string) (*model.Gifticon, error) {
	g := &model.Gifticon{}
	var url string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, url, is_validated, created_at, updated_at FROM gifticons WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.UserID, &url, &g.IsValidated, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find gifticon: %w", err)
	}
	g.URL = model.URL(url)
	return g, nil
}

// Create はギフティコンを作成する。
func (r *PostgresGifticonRepo) Create(ctx context.Context, g *model.Gifticon) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gifticons (id, user_id, url, is_validated, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.UserID, g.URL.String(), g.IsValidated, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert gifticon: %w", err)
	}
	return nil
}

// UpdateURL はギフティコンのURLを更新する。
func (r *PostgresGifticonRepo) UpdateURL(ctx context.Context, id string, url model.URL, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE gifticons SET url = $2, updated_at = $3 WHERE id = $1`,
		id, url.String(), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update gifticon url: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのギフティコンを削除する。
func (r *PostgresGifticonRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM gifticons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete gifticon: %w", err)
	}
	return nil
}

// PurgeByUser はユーザーがアップロードしたギフティコンを削除する。
func (r *PostgresGifticonRepo) PurgeByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM gifticons WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to purge gifticons: %w", err)
	}
	return nil
}

// PostgresGoalGifticonRepo はPostgreSQLを使用した目標・ギフティコン紐付けリポジトリ。
type PostgresGoalGifticonRepo struct {
	db DBTX
}

// NewPostgresGoalGifticonRepo はPostgresGoalGifticonRepoを生成する。
func NewPostgresGoalGifticonRepo(db DBTX) *PostgresGoalGifticonRepo {
	return &PostgresGoalGifticonRepo{db: db}
}

// FindByGoalID は目標の紐付けを取得する。見つからない場合はnilを返す。
func (r *PostgresGoalGifticonRepo) FindByGoalID(ctx context.Context, goalID string) (*model.GoalGifticon, error) {
	link := &model.GoalGifticon{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, goal_id, gifticon_id, created_at FROM goal_gifticons WHERE goal_id = $1`,
		goalID,
	).Scan(&link.ID, &link.GoalID, &link.GifticonID, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal gifticon: %w", err)
	}
	return link, nil
}

// Create は紐付けを作成する。既に紐付けがある場合はErrDuplicateを返す。
func (r *PostgresGoalGifticonRepo) Create(ctx context.Context, link *model.GoalGifticon) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goal_gifticons (id, goal_id, gifticon_id, created_at) VALUES ($1, $2, $3, $4)`,
		link.ID, link.GoalID, link.GifticonID, link.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert goal gifticon: %w", err)
	}
	return nil
}

// DeleteByGoalID は目標の紐付けを削除する。
func (r *PostgresGoalGifticonRepo) DeleteByGoalID(ctx context.Context, goalID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM goal_gifticons WHERE goal_id = $1`, goalID); err != nil {
		return fmt.Errorf("failed to delete goal gifticon: %w", err)
	}
	return nil
}

// PurgeByUser はユーザーの目標またはギフティコンに関わる紐付けを削除する。
func (r *PostgresGoalGifticonRepo) PurgeByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM goal_gifticons
		 WHERE goal_id IN (SELECT id FROM goals WHERE user_id = $1)
		    OR gifticon_id IN (SELECT id FROM gifticons WHERE user_id = $1)`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to purge goal gifticons: %w", err)
	}
	return nil
}

// compile-time interface check
var (
	_ GifticonRepository     = (*PostgresGifticonRepo)(nil)
	_ GoalGifticonRepository = (*PostgresGoalGifticonRepo)(nil)
)
