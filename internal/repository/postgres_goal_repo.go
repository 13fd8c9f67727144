package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
)

// PostgresGoalRepo はPostgreSQLを使用した目標リポジトリ。
type PostgresGoalRepo struct {
	db DBTX
}

// NewPostgresGoalRepo はPostgresGoalRepoを生成する。
func NewPostgresGoalRepo(db DBTX) *PostgresGoalRepo {
	return &PostgresGoalRepo{db: db}
}

const goalColumns = `id, user_id, goal_type, content, result, start_date, end_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*model.Goal, error) {
	g := &model.Goal{}
	var goalType, result string
	err := row.Scan(&g.ID, &g.UserID, &goalType, &g.Content, &result,
		&g.StartDate, &g.EndDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Type = model.GoalType(goalType)
	g.Result = model.GoalResult(result)
	return g, nil
}

// FindByID は指定IDの目標を取得する。見つからない場合はnilを返す。
func (r *PostgresGoalRepo) FindByID(ctx context.Context, id string) (*model.Goal, error) {
	return r.findOne(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id)
}

// FindByIDForUpdate は行ロックを取得して目標を取得する。
func (r *PostgresGoalRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Goal, error) {
	return r.findOne(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresGoalRepo) findOne(ctx context.Context, query, id string) (*model.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal: %w", err)
	}
	return g, nil
}

// ListByUserID はユーザーの目標を開始日の降順で返す。
func (r *PostgresGoalRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY start_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

// ExistsProceedingByUserID はユーザーに判定前の目標があるかを返す。
func (r *PostgresGoalRepo) ExistsProceedingByUserID(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM goals WHERE user_id = $1 AND result = 'PROCEEDING')`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check proceeding goal: %w", err)
	}
	return exists, nil
}

// ListEndedProceeding はnow時点で終了済みかつ判定前の目標IDを終了日順に最大limit件返す。
func (r *PostgresGoalRepo) ListEndedProceeding(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM goals
		 WHERE result = 'PROCEEDING' AND end_date <= $1
		 ORDER BY end_date ASC
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ended goals: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan goal id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ended goals: %w", err)
	}
	return ids, nil
}

// Create は目標を作成する。
func (r *PostgresGoalRepo) Create(ctx context.Context, g *model.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, goal_type, content, result, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.UserID, string(g.Type), g.Content, string(g.Result),
		g.StartDate, g.EndDate, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

// UpdateResult は目標の判定結果を更新する。
func (r *PostgresGoalRepo) UpdateResult(ctx context.Context, id string, result model.GoalResult, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE goals SET result = $2, updated_at = $3 WHERE id = $1`,
		id, string(result), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal result: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの目標を削除する。
func (r *PostgresGoalRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

// PurgeByUser はユーザーが作成した目標を全て削除する。
func (r *PostgresGoalRepo) PurgeByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to purge goals: %w", err)
	}
	return nil
}

// compile-time interface check
var _ GoalRepository = (*PostgresGoalRepo)(nil)
