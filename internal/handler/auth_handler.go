package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/raisedragon/raisedragon/internal/auth"
	"github.com/raisedragon/raisedragon/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	KakaoLogin(ctx context.Context, accessToken string) (*auth.LoginResult, error)
	ReissueToken(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

// AuthHandler はログインとトークン再発行のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	resp    *Responder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, resp *Responder) *AuthHandler {
	return &AuthHandler{
		service: service,
		resp:    resp,
	}
}

type kakaoLoginRequest struct {
	AccessToken string `json:"accessToken"`
}

type tokenRefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	UserID             string `json:"userId"`
	Nickname           string `json:"nickname"`
	AccessToken        string `json:"accessToken"`
	RefreshToken       string `json:"refreshToken"`
	NicknameIsModified bool   `json:"nicknameIsModified"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// KakaoLogin はKakaoアクセストークンでログインする。
// POST /v1/auth/oauth/kakao
func (h *AuthHandler) KakaoLogin(w http.ResponseWriter, r *http.Request) {
	var req kakaoLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		h.resp.Error(w, r, model.NewBadRequestError(model.MsgInvalidParameter))
		return
	}

	result, err := h.service.KakaoLogin(r.Context(), req.AccessToken)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.OK(w, loginResponse{
		UserID:             result.UserID,
		Nickname:           result.Nickname,
		AccessToken:        result.AccessToken,
		RefreshToken:       result.RefreshToken,
		NicknameIsModified: result.NicknameIsModified,
	})
}

// ReissueToken はリフレッシュトークンからトークンペアを再発行する。
// POST /v1/auth/token/refresh
func (h *AuthHandler) ReissueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		h.resp.Error(w, r, model.NewBadRequestError(model.MsgInvalidParameter))
		return
	}

	pair, err := h.service.ReissueToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.OK(w, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
