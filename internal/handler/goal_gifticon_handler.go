package handler

import (
	"context"
	"net/http"

	"github.com/raisedragon/raisedragon/internal/goalgifticon"
)

// GoalGifticonServiceInterface はギフティコンハンドラーが必要とするサービスインターフェース。
type GoalGifticonServiceInterface interface {
	CreateAndUploadGifticon(ctx context.Context, userID, goalID, uploadedURL string) (*goalgifticon.Attached, error)
	RetrieveByGoalID(ctx context.Context, goalID, userID string) (*goalgifticon.Attached, error)
	UpdateGifticonURLByGoalID(ctx context.Context, goalID, userID, newURL string) (*goalgifticon.Attached, error)
}

// GoalGifticonHandler は目標に紐づくギフティコンのHTTPハンドラー。
type GoalGifticonHandler struct {
	service GoalGifticonServiceInterface
	resp    *Responder
}

// NewGoalGifticonHandler はGoalGifticonHandlerを生成する。
func NewGoalGifticonHandler(service GoalGifticonServiceInterface, resp *Responder) *GoalGifticonHandler {
	return &GoalGifticonHandler{
		service: service,
		resp:    resp,
	}
}

type goalGifticonCreateRequest struct {
	GoalID      string `json:"goalId"`
	GifticonURL string `json:"gifticonURL"`
}

type goalGifticonUpdateRequest struct {
	GifticonURL string `json:"gifticonURL"`
}

type goalGifticonResponse struct {
	GoalGifticonID string `json:"goalGifticonId"`
	GoalID         string `json:"goalId"`
	GifticonID     string `json:"gifticonId"`
	GifticonURL    string `json:"gifticonURL"`
	IsValidated    bool   `json:"isValidated"`
}

func toGoalGifticonResponse(a *goalgifticon.Attached) goalGifticonResponse {
	return goalGifticonResponse{
		GoalGifticonID: a.Link.ID,
		GoalID:         a.Link.GoalID,
		GifticonID:     a.Gifticon.ID,
		GifticonURL:    a.Gifticon.URL.String(),
		IsValidated:    a.Gifticon.IsValidated,
	}
}

// Create はアップロード済みのギフティコンを目標に登録する。
// POST /v1/goal-gifticon
func (h *GoalGifticonHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var req goalGifticonCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	goalID, err := parseID(req.GoalID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	attached, err := h.service.CreateAndUploadGifticon(r.Context(), userID, goalID, req.GifticonURL)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Created(w, toGoalGifticonResponse(attached))
}

// Retrieve は目標に登録されたギフティコンを返す。作成者と当選者のみ閲覧できる。
// GET /v1/goal-gifticon/{goalId}
func (h *GoalGifticonHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
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

	attached, err := h.service.RetrieveByGoalID(r.Context(), goalID, userID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, toGoalGifticonResponse(attached))
}

// Update はギフティコンのURLを差し替える。
// PUT /v1/goal-gifticon/{goalId}
func (h *GoalGifticonHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req goalGifticonUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	attached, err := h.service.UpdateGifticonURLByGoalID(r.Context(), goalID, userID, req.GifticonURL)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, toGoalGifticonResponse(attached))
}
