// Package goalproof は目標の日次認証を提供する。
package goalproof

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/raisedragon/raisedragon/internal/metrics"
	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
	"github.com/raisedragon/raisedragon/internal/security"
)

// ProofList は目標の認証一覧と達成済みの日目。
type ProofList struct {
	Proofs       []*model.GoalProof
	ProgressDays []int
}

// UpdateInput は認証更新の入力。nilの項目は変更しない。
type UpdateInput struct {
	URL     *string
	Comment *string
}

// Service は目標認証のサービス層。
type Service struct {
	tx        repository.Transactor
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	loc       *time.Location
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(tx repository.Transactor, sanitizer security.TextSanitizer, collector metrics.MetricsCollector, loc *time.Location) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		tx:        tx,
		sanitizer: sanitizer,
		metrics:   collector,
		loc:       loc,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create は今日の認証を作成する。
// 今日が目標期間 [開始日, 開始日+7日) に含まれ、同日の認証が未作成である必要がある。
func (s *Service) Create(ctx context.Context, userID, goalID, rawURL, rawComment string) (*model.GoalProof, error) {
	url, err := model.NewURL(rawURL)
	if err != nil {
		return nil, err
	}
	comment, err := model.NewComment(s.sanitizer.Sanitize(rawComment))
	if err != nil {
		return nil, err
	}

	now := s.now()
	proof := &model.GoalProof{
		ID:        s.newID(),
		UserID:    userID,
		GoalID:    goalID,
		URL:       url,
		Comment:   comment,
		ProofDate: model.CalendarDate(now, s.loc),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		goal, err := repos.Goals().FindByID(ctx, goalID)
		if err != nil {
			return err
		}
		if goal == nil {
			return model.NewGoalNotFoundError()
		}
		if !goal.IsOwnedBy(userID) {
			return model.NewGoalInaccessibleError()
		}
		if _, ok := goal.ProofDay(now, s.loc); !ok {
			return model.NewInvalidProofDateError()
		}

		exists, err := repos.GoalProofs().ExistsByGoalAndDate(ctx, goalID, proof.ProofDate)
		if err != nil {
			return err
		}
		if exists {
			return model.NewDuplicateGoalProofError()
		}
		if err := repos.GoalProofs().Create(ctx, proof); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return model.NewDuplicateGoalProofError()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordGoalProofCreated()
	slog.Info("goal proof created",
		slog.String("goal_proof_id", proof.ID),
		slog.String("goal_id", goalID),
		slog.String("user_id", userID),
	)
	return proof, nil
}

// Update は認証のURLとコメントを更新する。
// 提出者本人のみ、目標の終了前まで更新できる。
func (s *Service) Update(ctx context.Context, goalProofID, userID string, in UpdateInput) (*model.GoalProof, error) {
	var proof *model.GoalProof
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		proof, err = findProof(ctx, repos, goalProofID)
		if err != nil {
			return err
		}
		if proof.UserID != userID {
			return model.NewGoalProofInaccessibleError()
		}

		goal, err := repos.Goals().FindByID(ctx, proof.GoalID)
		if err != nil {
			return err
		}
		if goal == nil {
			return model.NewGoalNotFoundError()
		}
		now := s.now()
		if goal.HasEnded(now) {
			return model.NewGoalEndedError()
		}

		if in.URL != nil {
			url, err := model.NewURL(*in.URL)
			if err != nil {
				return err
			}
			proof.URL = url
		}
		if in.Comment != nil {
			comment, err := model.NewComment(s.sanitizer.Sanitize(*in.Comment))
			if err != nil {
				return err
			}
			proof.Comment = comment
		}
		proof.UpdatedAt = now
		return repos.GoalProofs().Update(ctx, proof)
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

// Retrieve は認証を取得する。
func (s *Service) Retrieve(ctx context.Context, goalProofID string) (*model.GoalProof, error) {
	var proof *model.GoalProof
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		proof, err = findProof(ctx, repos, goalProofID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

// RetrieveAll は目標の認証一覧と、認証済みの日目（1〜7）を昇順で返す。
func (s *Service) RetrieveAll(ctx context.Context, goalID string) (*ProofList, error) {
	list := &ProofList{Proofs: []*model.GoalProof{}, ProgressDays: []int{}}
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		goal, err := repos.Goals().FindByID(ctx, goalID)
		if err != nil {
			return err
		}
		if goal == nil {
			return model.NewGoalNotFoundError()
		}

		proofs, err := repos.GoalProofs().ListByGoalID(ctx, goalID)
		if err != nil {
			return err
		}
		for _, p := range proofs {
			list.Proofs = append(list.Proofs, p)
			list.ProgressDays = append(list.ProgressDays, goal.DayOf(p.ProofDate, s.loc))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(list.ProgressDays)
	return list, nil
}

// IsSuccess はユーザーが目標の7日分すべてを認証したかを返す。
func (s *Service) IsSuccess(ctx context.Context, goalID, userID string) (bool, error) {
	var count int
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, repos repository.Repos) error {
		goal, err := repos.Goals().FindByID(ctx, goalID)
		if err != nil {
			return err
		}
		if goal == nil {
			return model.NewGoalNotFoundError()
		}
		count, err = repos.GoalProofs().CountByGoalAndUser(ctx, goalID, userID)
		return err
	})
	if err != nil {
		return false, err
	}
	return count == model.GoalDays, nil
}

func findProof(ctx context.Context, repos repository.Repos, goalProofID string) (*model.GoalProof, error) {
	proof, err := repos.GoalProofs().FindByID(ctx, goalProofID)
	if err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, model.NewGoalProofNotFoundError()
	}
	return proof, nil
}
