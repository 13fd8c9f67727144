package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
)

// BettingServiceInterface はベッティングハンドラーが必要とするサービスインターフェース。
type BettingServiceInterface interface {
	Create(ctx context.Context, userID, goalID, prediction string) (*model.Betting, error)
	ListByGoal(ctx context.Context, goalID string) ([]*model.Betting, error)
	RetrieveWinner(ctx context.Context, goalID string) (*model.Winner, error)
}

// BettingHandler はベッティングと当選者のHTTPハンドラー。
type BettingHandler struct {
	service BettingServiceInterface
	resp    *Responder
}

// NewBettingHandler はBettingHandlerを生成する。
func NewBettingHandler(service BettingServiceInterface, resp *Responder) *BettingHandler {
	return &BettingHandler{
		service: service,
		resp:    resp,
	}
}

type bettingCreateRequest struct {
	GoalID     string `json:"goalId"`
	Prediction string `json:"prediction"`
}

type bettingResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	GoalID     string    `json:"goalId"`
	Prediction string    `json:"prediction"`
	CreatedAt  time.Time `json:"createdAt"`
}

type winnerResponse struct {
	ID         string    `json:"id"`
	GoalID     string    `json:"goalId"`
	UserID     string    `json:"userId"`
	GifticonID string    `json:"gifticonId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toBettingResponse(b *model.Betting) bettingResponse {
	return bettingResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		GoalID:     b.GoalID,
		Prediction: string(b.Prediction),
		CreatedAt:  b.CreatedAt,
	}
}

// Create は他人の目標にベットする。
// POST /v1/betting
func (h *BettingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var req bettingCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	goalID, err := parseID(req.GoalID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	betting, err := h.service.Create(r.Context(), userID, goalID, req.Prediction)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Created(w, toBettingResponse(betting))
}

// List は目標へのベット一覧を返す。
// GET /v1/goal/{goalId}/betting
func (h *BettingHandler) List(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathParam(r, "goalId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	bettings, err := h.service.ListByGoal(r.Context(), goalID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	out := make([]bettingResponse, 0, len(bettings))
	for _, b := range bettings {
		out = append(out, toBettingResponse(b))
	}
	h.resp.OK(w, out)
}

// Winner は目標の当選者を返す。
// GET /v1/goal/{goalId}/winner
func (h *BettingHandler) Winner(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathParam(r, "goalId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	winner, err := h.service.RetrieveWinner(r.Context(), goalID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, winnerResponse{
		ID:         winner.ID,
		GoalID:     winner.GoalID,
		UserID:     winner.UserID,
		GifticonID: winner.GifticonID,
		CreatedAt:  winner.CreatedAt,
	})
}
