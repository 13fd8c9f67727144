package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/raisedragon/raisedragon/internal/goalproof"
	"github.com/raisedragon/raisedragon/internal/model"
)

// GoalProofServiceInterface は目標認証ハンドラーが必要とするサービスインターフェース。
type GoalProofServiceInterface interface {
	Create(ctx context.Context, userID, goalID, url, comment string) (*model.GoalProof, error)
	Update(ctx context.Context, goalProofID, userID string, in goalproof.UpdateInput) (*model.GoalProof, error)
	Retrieve(ctx context.Context, goalProofID string) (*model.GoalProof, error)
	RetrieveAll(ctx context.Context, goalID string) (*goalproof.ProofList, error)
	IsSuccess(ctx context.Context, goalID, userID string) (bool, error)
}

// GoalProofHandler は目標認証のHTTPハンドラー。
type GoalProofHandler struct {
	service GoalProofServiceInterface
	resp    *Responder
}

// NewGoalProofHandler はGoalProofHandlerを生成する。
func NewGoalProofHandler(service GoalProofServiceInterface, resp *Responder) *GoalProofHandler {
	return &GoalProofHandler{
		service: service,
		resp:    resp,
	}
}

type goalProofCreateRequest struct {
	GoalID  string `json:"goalId"`
	URL     string `json:"url"`
	Comment string `json:"comment"`
}

// goalProofUpdateRequest は省略されたフィールドを変更しない。
type goalProofUpdateRequest struct {
	URL     *string `json:"url"`
	Comment *string `json:"comment"`
}

type goalProofResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	GoalID    string    `json:"goalId"`
	URL       string    `json:"url"`
	Comment   string    `json:"comment"`
	ProofDate string    `json:"proofDate"`
	CreatedAt time.Time `json:"createdAt"`
}

type goalProofListResponse struct {
	GoalProofs   []goalProofResponse `json:"goalProofs"`
	ProgressDays []int               `json:"progressDays"`
}

func toGoalProofResponse(p *model.GoalProof) goalProofResponse {
	return goalProofResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		GoalID:    p.GoalID,
		URL:       p.URL.String(),
		Comment:   p.Comment.String(),
		ProofDate: p.ProofDate.Format(dateLayout),
		CreatedAt: p.CreatedAt,
	}
}

// Create は本日分の認証を作成する。
// POST /v1/goal-proof
func (h *GoalProofHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var req goalProofCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	goalID, err := parseID(req.GoalID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	proof, err := h.service.Create(r.Context(), userID, goalID, req.URL, req.Comment)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Created(w, toGoalProofResponse(proof))
}

// Update は認証のURLまたはコメントを変更する。
// PUT /v1/goal-proof/{goalProofId}
func (h *GoalProofHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	proofID, err := pathParam(r, "goalProofId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var req goalProofUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	proof, err := h.service.Update(r.Context(), proofID, userID, goalproof.UpdateInput{
		URL:     req.URL,
		Comment: req.Comment,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, toGoalProofResponse(proof))
}

// Retrieve は認証を取得する。
// GET /v1/goal-proof/{goalProofId}
func (h *GoalProofHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	proofID, err := pathParam(r, "goalProofId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	proof, err := h.service.Retrieve(r.Context(), proofID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, toGoalProofResponse(proof))
}

// RetrieveAll は目標の認証一覧と進捗日を返す。
// GET /v1/goal/{goalId}/goal-proof
func (h *GoalProofHandler) RetrieveAll(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathParam(r, "goalId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	list, err := h.service.RetrieveAll(r.Context(), goalID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	out := goalProofListResponse{
		GoalProofs:   make([]goalProofResponse, 0, len(list.Proofs)),
		ProgressDays: list.ProgressDays,
	}
	if out.ProgressDays == nil {
		out.ProgressDays = []int{}
	}
	for _, p := range list.Proofs {
		out.GoalProofs = append(out.GoalProofs, toGoalProofResponse(p))
	}
	h.resp.OK(w, out)
}

// IsSuccess はログインユーザーが目標を達成したかを返す。
// GET /v1/goal/{goalId}/goal-proof/result
func (h *GoalProofHandler) IsSuccess(w http.ResponseWriter, r *http.Request) {
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

	ok, err := h.service.IsSuccess(r.Context(), goalID, userID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, ok)
}
