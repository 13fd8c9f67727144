package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
)

type userRepo struct{ st *state }

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) FindByOAuthPayload(_ context.Context, payload string) (*model.User, error) {
	for _, u := range r.st.users {
		if u.OAuthTokenPayload != "" && u.OAuthTokenPayload == payload {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) ExistsByNickname(_ context.Context, nickname model.Nickname) (bool, error) {
	return r.activeNicknameTaken("", nickname), nil
}

func (r *userRepo) activeNicknameTaken(exceptID string, nickname model.Nickname) bool {
	for _, u := range r.st.users {
		if u.ID != exceptID && u.IsActive() && u.Nickname == nickname {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	if _, ok := r.st.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	if existing, _ := r.FindByOAuthPayload(ctx, user.OAuthTokenPayload); existing != nil {
		return repository.ErrDuplicate
	}
	if user.IsActive() && r.activeNicknameTaken(user.ID, user.Nickname) {
		return repository.ErrDuplicate
	}
	r.st.users[user.ID] = *user
	return nil
}

func (r *userRepo) UpdateNickname(_ context.Context, id string, nickname model.Nickname, modified bool, updatedAt time.Time) error {
	u, ok := r.st.users[id]
	if !ok {
		return nil
	}
	if u.IsActive() && r.activeNicknameTaken(id, nickname) {
		return repository.ErrDuplicate
	}
	u.Nickname = nickname
	u.NicknameModified = modified
	u.UpdatedAt = updatedAt
	r.st.users[id] = u
	return nil
}

func (r *userRepo) UpdateStatus(_ context.Context, id string, status model.UserStatus, updatedAt time.Time) error {
	u, ok := r.st.users[id]
	if !ok {
		return nil
	}
	if status == model.UserStatusActive && r.activeNicknameTaken(id, u.Nickname) {
		return repository.ErrDuplicate
	}
	u.Status = status
	u.UpdatedAt = updatedAt
	r.st.users[id] = u
	return nil
}

func (r *userRepo) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.st.users[id]; !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	delete(r.st.users, id)
	return nil
}

type refreshTokenRepo struct{ st *state }

func (r *refreshTokenRepo) FindByPayload(_ context.Context, payload string) (*model.RefreshToken, error) {
	for _, t := range r.st.refreshTokens {
		if t.Payload == payload {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *refreshTokenRepo) FindByUserID(_ context.Context, userID string) (*model.RefreshToken, error) {
	t, ok := r.st.refreshTokens[userID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *refreshTokenRepo) Upsert(_ context.Context, token *model.RefreshToken) error {
	if existing, ok := r.st.refreshTokens[token.UserID]; ok {
		existing.Payload = token.Payload
		existing.UpdatedAt = token.UpdatedAt
		r.st.refreshTokens[token.UserID] = existing
		return nil
	}
	r.st.refreshTokens[token.UserID] = *token
	return nil
}

func (r *refreshTokenRepo) PurgeByUser(_ context.Context, userID string) error {
	delete(r.st.refreshTokens, userID)
	return nil
}

type goalRepo struct{ st *state }

func (r *goalRepo) FindByID(_ context.Context, id string) (*model.Goal, error) {
	g, ok := r.st.goals[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r *goalRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Goal, error) {
	return r.FindByID(ctx, id)
}

func (r *goalRepo) ListByUserID(_ context.Context, userID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	for _, g := range r.st.goals {
		if g.UserID == userID {
			goals = append(goals, &g)
		}
	}
	slices.SortFunc(goals, func(a, b *model.Goal) int {
		return b.StartDate.Compare(a.StartDate)
	})
	return goals, nil
}

func (r *goalRepo) ExistsProceedingByUserID(_ context.Context, userID string) (bool, error) {
	for _, g := range r.st.goals {
		if g.UserID == userID && g.IsProceeding() {
			return true, nil
		}
	}
	return false, nil
}

func (r *goalRepo) ListEndedProceeding(_ context.Context, now time.Time, limit int) ([]string, error) {
	var ended []model.Goal
	for _, g := range r.st.goals {
		if g.IsProceeding() && g.HasEnded(now) {
			ended = append(ended, g)
		}
	}
	slices.SortFunc(ended, func(a, b model.Goal) int {
		return cmp.Or(a.EndDate.Compare(b.EndDate), cmp.Compare(a.ID, b.ID))
	})
	ids := make([]string, 0, min(limit, len(ended)))
	for i := 0; i < len(ended) && i < limit; i++ {
		ids = append(ids, ended[i].ID)
	}
	return ids, nil
}

func (r *goalRepo) Create(_ context.Context, goal *model.Goal) error {
	if _, ok := r.st.goals[goal.ID]; ok {
		return repository.ErrDuplicate
	}
	r.st.goals[goal.ID] = *goal
	return nil
}

func (r *goalRepo) UpdateResult(_ context.Context, id string, result model.GoalResult, updatedAt time.Time) error {
	g, ok := r.st.goals[id]
	if !ok {
		return nil
	}
	g.Result = result
	g.UpdatedAt = updatedAt
	r.st.goals[id] = g
	return nil
}

func (r *goalRepo) DeleteByID(_ context.Context, id string) error {
	delete(r.st.goals, id)
	return nil
}

func (r *goalRepo) PurgeByUser(_ context.Context, userID string) error {
	for id, g := range r.st.goals {
		if g.UserID == userID {
			delete(r.st.goals, id)
		}
	}
	return nil
}

// ownsGoal はgoalIDがuserIDの目標かを返す。
func (s *state) ownsGoal(userID, goalID string) bool {
	g, ok := s.goals[goalID]
	return ok && g.UserID == userID
}

// ownsGifticon はgifticonIDがuserIDのギフティコンかを返す。
func (s *state) ownsGifticon(userID, gifticonID string) bool {
	g, ok := s.gifticons[gifticonID]
	return ok && g.UserID == userID
}

type goalProofRepo struct{ st *state }

func (r *goalProofRepo) FindByID(_ context.Context, id string) (*model.GoalProof, error) {
	p, ok := r.st.goalProofs[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *goalProofRepo) ListByGoalID(_ context.Context, goalID string) ([]*model.GoalProof, error) {
	var proofs []*model.GoalProof
	for _, p := range r.st.goalProofs {
		if p.GoalID == goalID {
			proofs = append(proofs, &p)
		}
	}
	slices.SortFunc(proofs, func(a, b *model.GoalProof) int {
		return a.ProofDate.Compare(b.ProofDate)
	})
	return proofs, nil
}

func (r *goalProofRepo) ExistsByGoalAndDate(_ context.Context, goalID string, proofDate time.Time) (bool, error) {
	for _, p := range r.st.goalProofs {
		if p.GoalID == goalID && p.ProofDate.Equal(proofDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *goalProofRepo) CountByGoalAndUser(_ context.Context, goalID, userID string) (int, error) {
	count := 0
	for _, p := range r.st.goalProofs {
		if p.GoalID == goalID && p.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *goalProofRepo) Create(ctx context.Context, proof *model.GoalProof) error {
	if exists, _ := r.ExistsByGoalAndDate(ctx, proof.GoalID, proof.ProofDate); exists {
		return repository.ErrDuplicate
	}
	r.st.goalProofs[proof.ID] = *proof
	return nil
}

func (r *goalProofRepo) Update(_ context.Context, proof *model.GoalProof) error {
	p, ok := r.st.goalProofs[proof.ID]
	if !ok {
		return nil
	}
	p.URL = proof.URL
	p.Comment = proof.Comment
	p.UpdatedAt = proof.UpdatedAt
	r.st.goalProofs[proof.ID] = p
	return nil
}

func (r *goalProofRepo) DeleteByGoalID(_ context.Context, goalID string) error {
	for id, p := range r.st.goalProofs {
		if p.GoalID == goalID {
			delete(r.st.goalProofs, id)
		}
	}
	return nil
}

func (r *goalProofRepo) PurgeByUser(_ context.Context, userID string) error {
	for id, p := range r.st.goalProofs {
		if p.UserID == userID || r.st.ownsGoal(userID, p.GoalID) {
			delete(r.st.goalProofs, id)
		}
	}
	return nil
}

type gifticonRepo struct{ st *state }

func (r *gifticonRepo) FindByID(_ context.Context, id string) (*model.Gifticon, error) {
	g, ok := r.st.gifticons[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r *gifticonRepo) Create(_ context.Context, gifticon *model.Gifticon) error {
	r.st.gifticons[gifticon.ID] = *gifticon
	return nil
}

func (r *gifticonRepo) UpdateURL(_ context.Context, id string, url model.URL, updatedAt time.Time) error {
	g, ok := r.st.gifticons[id]
	if !ok {
		return nil
	}
	g.URL = url
	g.UpdatedAt = updatedAt
	r.st.gifticons[id] = g
	return nil
}

func (r *gifticonRepo) DeleteByID(_ context.Context, id string) error {
	delete(r.st.gifticons, id)
	return nil
}

func (r *gifticonRepo) PurgeByUser(_ context.Context, userID string) error {
	for id, g := range r.st.gifticons {
		if g.UserID == userID {
			delete(r.st.gifticons, id)
		}
	}
	return nil
}

type goalGifticonRepo struct{ st *state }

func (r *goalGifticonRepo) FindByGoalID(_ context.Context, goalID string) (*model.GoalGifticon, error) {
	link, ok := r.st.goalGifticons[goalID]
	if !ok {
		return nil, nil
	}
	return &link, nil
}

func (r *goalGifticonRepo) Create(_ context.Context, link *model.GoalGifticon) error {
	if _, ok := r.st.goalGifticons[link.GoalID]; ok {
		return repository.ErrDuplicate
	}
	r.st.goalGifticons[link.GoalID] = *link
	return nil
}

func (r *goalGifticonRepo) DeleteByGoalID(_ context.Context, goalID string) error {
	delete(r.st.goalGifticons, goalID)
	return nil
}

func (r *goalGifticonRepo) PurgeByUser(_ context.Context, userID string) error {
	for goalID, link := range r.st.goalGifticons {
		if r.st.ownsGoal(userID, goalID) || r.st.ownsGifticon(userID, link.GifticonID) {
			delete(r.st.goalGifticons, goalID)
		}
	}
	return nil
}

type winnerRepo struct{ st *state }

func (r *winnerRepo) FindByGoalID(_ context.Context, goalID string) (*model.Winner, error) {
	w, ok := r.st.winners[goalID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *winnerRepo) ExistsByGoalAndUser(_ context.Context, goalID, userID string) (bool, error) {
	w, ok := r.st.winners[goalID]
	return ok && w.UserID == userID, nil
}

func (r *winnerRepo) Create(_ context.Context, winner *model.Winner) error {
	if _, ok := r.st.winners[winner.GoalID]; ok {
		return repository.ErrDuplicate
	}
	r.st.winners[winner.GoalID] = *winner
	return nil
}

func (r *winnerRepo) PurgeByUser(_ context.Context, userID string) error {
	for goalID, w := range r.st.winners {
		if w.UserID == userID || r.st.ownsGoal(userID, goalID) || r.st.ownsGifticon(userID, w.GifticonID) {
			delete(r.st.winners, goalID)
		}
	}
	return nil
}

type bettingRepo struct{ st *state }

func (r *bettingRepo) FindByGoalAndUser(_ context.Context, goalID, userID string) (*model.Betting, error) {
	for _, b := range r.st.bettings {
		if b.GoalID == goalID && b.UserID == userID {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *bettingRepo) ListByGoalID(_ context.Context, goalID string) ([]*model.Betting, error) {
	var bettings []*model.Betting
	for _, b := range r.st.bettings {
		if b.GoalID == goalID {
			bettings = append(bettings, &b)
		}
	}
	slices.SortFunc(bettings, func(a, b *model.Betting) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return bettings, nil
}

func (r *bettingRepo) Create(ctx context.Context, betting *model.Betting) error {
	if existing, _ := r.FindByGoalAndUser(ctx, betting.GoalID, betting.UserID); existing != nil {
		return repository.ErrDuplicate
	}
	r.st.bettings[betting.ID] = *betting
	return nil
}

func (r *bettingRepo) DeleteByGoalID(_ context.Context, goalID string) error {
	for id, b := range r.st.bettings {
		if b.GoalID == goalID {
			delete(r.st.bettings, id)
		}
	}
	return nil
}

func (r *bettingRepo) PurgeByUser(_ context.Context, userID string) error {
	for id, b := range r.st.bettings {
		if b.UserID == userID || r.st.ownsGoal(userID, b.GoalID) {
			delete(r.st.bettings, id)
		}
	}
	return nil
}

// compile-time interface check
var (
	_ repository.UserRepository         = (*userRepo)(nil)
	_ repository.RefreshTokenRepository = (*refreshTokenRepo)(nil)
	_ repository.GoalRepository         = (*goalRepo)(nil)
	_ repository.GoalProofRepository    = (*goalProofRepo)(nil)
	_ repository.GifticonRepository     = (*gifticonRepo)(nil)
	_ repository.GoalGifticonRepository = (*goalGifticonRepo)(nil)
	_ repository.WinnerRepository       = (*winnerRepo)(nil)
	_ repository.BettingRepository      = (*bettingRepo)(nil)
)
