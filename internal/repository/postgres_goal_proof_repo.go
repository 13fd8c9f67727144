package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
)

// PostgresGoalProofRepo はPostgreSQLを使用した目標認証リポジトリ。
type PostgresGoalProofRepo struct {
	db DBTX
}

// NewPostgresGoalProofRepo はPostgresGoalProofRepoを生成する。
func NewPostgresGoalProofRepo(db DBTX) *PostgresGoalProofRepo {
	return &PostgresGoalProofRepo{db: db}
}

const goalProofColumns = `id, user_id, goal_id, url, comment, proof_date, created_at, updated_at`

func scanGoalProof(row rowScanner) (*model.GoalProof, error) {
	p := &model.GoalProof{}
	var url, comment string
	err := row.Scan(&p.ID, &p.UserID, &p.GoalID, &url, &comment, &p.ProofDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.URL = model.URL(url)
	p.Comment = model.Comment(comment)
	p.ProofDate = normalizeDate(p.ProofDate)
	return p, nil
}

// normalizeDate はDATE型の値をUTCの0時に揃える。
func normalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FindByID は指定IDの認証を取得する。見つからない場合はnilを返す。
func (r *PostgresGoalProofRepo) FindByID(ctx context.Context, id string) (*model.GoalProof, error) {
	p, err := scanGoalProof(r.db.QueryRowContext(ctx,
		`SELECT `+goalProofColumns+` FROM goal_proofs WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal proof: %w", err)
	}
	return p, nil
}

// ListByGoalID は目標の認証を認証日の昇順で返す。
func (r *PostgresGoalProofRepo) ListByGoalID(ctx context.Context, goalID string) ([]*model.GoalProof, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalProofColumns+` FROM goal_proofs WHERE goal_id = $1 ORDER BY proof_date ASC`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list goal proofs: %w", err)
	}
	defer rows.Close()

	var proofs []*model.GoalProof
	for rows.Next() {
		p, err := scanGoalProof(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal proof: %w", err)
		}
		proofs = append(proofs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goal proofs: %w", err)
	}
	return proofs, nil
}

// ExistsByGoalAndDate は同一目標・同一日の認証が存在するかを返す。
func (r *PostgresGoalProofRepo) ExistsByGoalAndDate(ctx context.Context, goalID string, proofDate time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM goal_proofs WHERE goal_id = $1 AND proof_date = $2)`,
		goalID, proofDate.Format(time.DateOnly),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check goal proof: %w", err)
	}
	return exists, nil
}

// CountByGoalAndUser は目標に対するユーザーの認証件数を返す。
func (r *PostgresGoalProofRepo) CountByGoalAndUser(ctx context.Context, goalID, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM goal_proofs WHERE goal_id = $1 AND user_id = $2`,
		goalID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count goal proofs: %w", err)
	}
	return count, nil
}

// Create は認証を作成する。同一目標・同一日の重複はErrDuplicateを返す。
func (r *PostgresGoalProofRepo) Create(ctx context.Context, p *model.GoalProof) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goal_proofs (id, user_id, goal_id, url, comment, proof_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.GoalID, p.URL.String(), p.Comment.String(),
		p.ProofDate.Format(time.DateOnly), p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert goal proof: %w", err)
	}
	return nil
}

// Update は認証のURLとコメントを更新する。
func (r *PostgresGoalProofRepo) Update(ctx context.Context, p *model.GoalProof) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE goal_proofs SET url = $2, comment = $3, updated_at = $4 WHERE id = $1`,
		p.ID, p.URL.String(), p.Comment.String(), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal proof: %w", err)
	}
	return nil
}

// DeleteByGoalID は目標の認証を全て削除する。
func (r *PostgresGoalProofRepo) DeleteByGoalID(ctx context.Context, goalID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM goal_proofs WHERE goal_id = $1`, goalID); err != nil {
		return fmt.Errorf("failed to delete goal proofs: %w", err)
	}
	return nil
}

// PurgeByUser はユーザーが作成した認証と、ユーザーの目標に対する認証を削除する。
func (r *PostgresGoalProofRepo) PurgeByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM goal_proofs
		 WHERE user_id = $1 OR goal_id IN (SELECT id FROM goals WHERE user_id = $1)`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to purge goal proofs: %w", err)
	}
	return nil
}

// compile-time interface check
var _ GoalProofRepository = (*PostgresGoalProofRepo)(nil)
