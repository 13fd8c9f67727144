package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raisedragon/raisedragon/internal/auth"
	"github.com/raisedragon/raisedragon/internal/model"
)

func TestAuthHandler_KakaoLogin_Success(t *testing.T) {
	svc := &mockAuthService{
		kakaoLoginFn: func(ctx context.Context, accessToken string) (*auth.LoginResult, error) {
			if accessToken != "kakao-token" {
				t.Errorf("accessToken = %q, want %q", accessToken, "kakao-token")
			}
			return &auth.LoginResult{
				UserID:       "user-1",
				Nickname:     "용감한 드래곤",
				AccessToken:  "access",
				RefreshToken: "refresh",
			}, nil
		},
	}
	h := NewAuthHandler(svc, NewResponder(false))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/oauth/kakao",
		jsonBody(t, map[string]string{"accessToken": "kakao-token"}))
	w := httptest.NewRecorder()

	h.KakaoLogin(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	env := decodeEnvelope(t, w.Body)
	if !env.IsSuccess || env.ErrorResponse != nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	var got loginResponse
	decodeData(t, env, &got)
	if got.UserID != "user-1" || got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Errorf("unexpected login response: %+v", got)
	}
	if got.NicknameIsModified {
		t.Error("nicknameIsModified should be false")
	}
}

func TestAuthHandler_KakaoLogin_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"missing token", `{"accessToken":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				kakaoLoginFn: func(ctx context.Context, accessToken string) (*auth.LoginResult, error) {
					t.Fatal("service should not be called")
					return nil, nil
				},
			}
			h := NewAuthHandler(svc, NewResponder(false))

			req := httptest.NewRequest(http.MethodPost, "/v1/auth/oauth/kakao", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.KakaoLogin(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			env := decodeEnvelope(t, w.Body)
			assertErrorCode(t, env, model.ErrCodeBadRequest)
			if env.ErrorResponse.DetailMessage != model.MsgInvalidParameter {
				t.Errorf("detailMessage = %q", env.ErrorResponse.DetailMessage)
			}
		})
	}
}

func TestAuthHandler_ReissueToken_Success(t *testing.T) {
	svc := &mockAuthService{
		reissueTokenFn: func(ctx context.Context, refreshToken string) (model.TokenPair, error) {
			if refreshToken != "old-refresh" {
				t.Errorf("refreshToken = %q", refreshToken)
			}
			return model.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}
	h := NewAuthHandler(svc, NewResponder(false))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token/refresh",
		jsonBody(t, map[string]string{"refreshToken": "old-refresh"}))
	w := httptest.NewRecorder()

	h.ReissueToken(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got tokenResponse
	decodeData(t, decodeEnvelope(t, w.Body), &got)
	if got.AccessToken != "new-access" || got.RefreshToken != "new-refresh" {
		t.Errorf("unexpected token response: %+v", got)
	}
}

func TestAuthHandler_ReissueToken_UnknownToken(t *testing.T) {
	svc := &mockAuthService{
		reissueTokenFn: func(ctx context.Context, refreshToken string) (model.TokenPair, error) {
			return model.TokenPair{}, model.NewInvalidTokenError()
		},
	}
	h := NewAuthHandler(svc, NewResponder(false))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token/refresh",
		jsonBody(t, map[string]string{"refreshToken": "unknown"}))
	w := httptest.NewRecorder()

	h.ReissueToken(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	env := decodeEnvelope(t, w.Body)
	assertErrorCode(t, env, model.ErrCodeBadRequest)
	if env.ErrorResponse.DetailMessage != "잘못된 토큰으로 요청하셨습니다." {
		t.Errorf("detailMessage = %q", env.ErrorResponse.DetailMessage)
	}
}
