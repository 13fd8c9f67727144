package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/raisedragon/raisedragon/internal/goal"
	"github.com/raisedragon/raisedragon/internal/model"
)

// dateLayout はリクエスト・レスポンスで使う日付の書式。
const dateLayout = "2006-01-02"

// GoalServiceInterface は目標ハンドラーが必要とするサービスインターフェース。
type GoalServiceInterface interface {
	Create(ctx context.Context, in goal.CreateInput) (*model.Goal, error)
	Retrieve(ctx context.Context, goalID string) (*model.Goal, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Goal, error)
	Delete(ctx context.Context, goalID, userID string) error
}

// GoalHandler は目標のHTTPハンドラー。
type GoalHandler struct {
	service GoalServiceInterface
	resp    *Responder
	loc     *time.Location
}

// NewGoalHandler はGoalHandlerを生成する。locは開始日の解釈に使う。
func NewGoalHandler(service GoalServiceInterface, resp *Responder, loc *time.Location) *GoalHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &GoalHandler{
		service: service,
		resp:    resp,
		loc:     loc,
	}
}

type goalCreateRequest struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	StartDate string `json:"startDate"`
}

type goalResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Result    string    `json:"result"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
}

func toGoalResponse(g *model.Goal) goalResponse {
	return goalResponse{
		ID:        g.ID,
		UserID:    g.UserID,
		Type:      string(g.Type),
		Content:   g.Content,
		Result:    string(g.Result),
		StartDate: g.StartDate,
		EndDate:   g.EndDate,
		CreatedAt: g.CreatedAt,
	}
}

// Create は目標を作成する。
// POST /v1/goal
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var req goalCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	startDate, err := time.ParseInLocation(dateLayout, req.StartDate, h.loc)
	if err != nil {
		h.resp.Error(w, r, model.NewBadRequestError(model.MsgInvalidParameter))
		return
	}

	created, err := h.service.Create(r.Context(), goal.CreateInput{
		UserID:    userID,
		Type:      req.Type,
		Content:   req.Content,
		StartDate: startDate,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Created(w, toGoalResponse(created))
}

// List はログインユーザーの目標一覧を返す。
// GET /v1/goal
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	goals, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	h.resp.OK(w, out)
}

// Retrieve は目標を取得する。
// GET /v1/goal/{goalId}
func (h *GoalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathParam(r, "goalId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	g, err := h.service.Retrieve(r.Context(), goalID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, toGoalResponse(g))
}

// Delete は開始前の目標を削除する。
// DELETE /v1/goal/{goalId}
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	goalID, err := pathParam(r, "goalId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), goalID, userID); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, nil)
}
