package handler

import (
	"context"
	"net/http"

	"github.com/raisedragon/raisedragon/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Retrieve(ctx context.Context, userID string) (*model.User, error)
	UpdateNickname(ctx context.Context, userID, nickname string) (*model.User, error)
	IsNicknameDuplicated(ctx context.Context, nickname string) (bool, error)
	// Deactivate はユーザーを休眠状態にする。次回ログインで復帰する。
	Deactivate(ctx context.Context, userID string) error
	// Delete はユーザーと依存データを物理削除する。
	Delete(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	resp    *Responder
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, resp *Responder) *UserHandler {
	return &UserHandler{
		service: service,
		resp:    resp,
	}
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

type userResponse struct {
	ID                 string `json:"id"`
	Nickname           string `json:"nickname"`
	NicknameIsModified bool   `json:"nicknameIsModified"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Nickname:           u.Nickname.String(),
		NicknameIsModified: u.NicknameModified,
	}
}

// Retrieve はログインユーザーの情報を返す。
// GET /v1/user
func (h *UserHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	user, err := h.service.Retrieve(r.Context(), userID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, toUserResponse(user))
}

// UpdateNickname はニックネームを変更する。
// PUT /v1/user/nickname
func (h *UserHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var req nicknameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	user, err := h.service.UpdateNickname(r.Context(), userID, req.Nickname)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, toUserResponse(user))
}

// IsNicknameDuplicated はニックネームが使用中かを返す。
// GET /v1/user/nickname/duplicated?nickname=
func (h *UserHandler) IsNicknameDuplicated(w http.ResponseWriter, r *http.Request) {
	duplicated, err := h.service.IsNicknameDuplicated(r.Context(), r.URL.Query().Get("nickname"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, duplicated)
}

// Deactivate はユーザーを休眠状態にする。
// POST /v1/user/deactivate
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), userID); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, nil)
}

// Delete は退会処理を実行する。
// DELETE /v1/user
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, nil)
}
