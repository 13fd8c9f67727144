package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/raisedragon/raisedragon/internal/model"
)

// PostgresBettingRepo はPostgreSQLを使用したベッティングリポジトリ。
type PostgresBettingRepo struct {
	db DBTX
}

// NewPostgresBettingRepo はPostgresBettingRepoを生成する。
func NewPostgresBettingRepo(db DBTX) *PostgresBettingRepo {
	return &PostgresBettingRepo{db: db}
}

func scanBetting(row rowScanner) (*model.Betting, error) {
	b := &model.Betting{}
	var prediction string
	if err := row.Scan(&b.ID, &b.UserID, &b.GoalID, &prediction, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Prediction = model.Prediction(prediction)
	return b, nil
}

// FindByGoalAndUser はユーザーの目標へのベットを取得する。見つからない場合はnilを返す。
func (r *PostgresBettingRepo) FindByGoalAndUser(ctx context.Context, goalID, userID string) (*model.Betting, error) {
	b, err := scanBetting(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, goal_id, prediction, created_at FROM bettings WHERE goal_id = $1 AND user_id = $2`,
		goalID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find betting: %w", err)
	}
	return b, nil
}

// ListByGoalID は目標へのベットを作成順に返す。
func (r *PostgresBettingRepo) ListByGoalID(ctx context.Context, goalID string) ([]*model.Betting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, goal_id, prediction, created_at FROM bettings WHERE goal_id = $1 ORDER BY created_at ASC`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bettings: %w", err)
	}
	defer rows.Close()

	var bettings []*model.Betting
	for rows.Next() {
		b, err := scanBetting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan betting: %w", err)
		}
		bettings = append(bettings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bettings: %w", err)
	}
	return bettings, nil
}

// Create はベットを作成する。同一ユーザー・同一目標の重複はErrDuplicateを返す。
func (r *PostgresBettingRepo) Create(ctx context.Context, b *model.Betting) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bettings (id, user_id, goal_id, prediction, created_at) VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.UserID, b.GoalID, string(b.Prediction), b.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert betting: %w", err)
	}
	return nil
}

// DeleteByGoalID は目標へのベットを全て削除する。
func (r *PostgresBettingRepo) DeleteByGoalID(ctx context.Context, goalID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bettings WHERE goal_id = $1`, goalID); err != nil {
		return fmt.Errorf("failed to delete bettings: %w", err)
	}
	return nil
}

// PurgeByUser はユーザーのベットと、ユーザーの目標へのベットを削除する。
func (r *PostgresBettingRepo) PurgeByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM bettings
		 WHERE user_id = $1 OR goal_id IN (SELECT id FROM goals WHERE user_id = $1)`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to purge bettings: %w", err)
	}
	return nil
}

// PostgresWinnerRepo はPostgreSQLを使用した当選者リポジトリ。
type PostgresWinnerRepo struct {
	db DBTX
}

// NewPostgresWinnerRepo はPostgresWinnerRepoを生成する。
func NewPostgresWinnerRepo(db DBTX) *PostgresWinnerRepo {
	return &PostgresWinnerRepo{db: db}
}

// FindByGoalID は目標の当選者を取得する。見つからない場合はnilを返す。
func (r *PostgresWinnerRepo) FindByGoalID(ctx context.Context, goalID string) (*model.Winner, error) {
	w := &model.Winner{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, goal_id, user_id, gifticon_id, created_at FROM winners WHERE goal_id = $1`,
		goalID,
	).Scan(&w.ID, &w.GoalID, &w.UserID, &w.GifticonID, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find winner: %w", err)
	}
	return w, nil
}

// ExistsByGoalAndUser はユーザーが目標の当選者かを返す。
func (r *PostgresWinnerRepo) ExistsByGoalAndUser(ctx context.Context, goalID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM winners WHERE goal_id = $1 AND user_id = $2)`,
		goalID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check winner: %w", err)
	}
	return exists, nil
}

// Create は当選者を記録する。
func (r *PostgresWinnerRepo) Create(ctx context.Context, w *model.Winner) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO winners (id, goal_id, user_id, gifticon_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.GoalID, w.UserID, w.GifticonID, w.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert winner: %w", err)
	}
	return nil
}

// PurgeByUser はユーザーが当選者である記録と、ユーザーの目標・ギフティコンに関わる記録を削除する。
func (r *PostgresWinnerRepo) PurgeByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM winners
		 WHERE user_id = $1
		    OR goal_id IN (SELECT id FROM goals WHERE user_id = $1)
		    OR gifticon_id IN (SELECT id FROM gifticons WHERE user_id = $1)`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to purge winners: %w", err)
	}
	return nil
}

// compile-time interface check
var (
	_ BettingRepository = (*PostgresBettingRepo)(nil)
	_ WinnerRepository  = (*PostgresWinnerRepo)(nil)
)
