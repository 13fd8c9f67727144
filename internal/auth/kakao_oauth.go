package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultKakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

// maxKakaoResponseSize はユーザー情報レスポンスの読み込み上限。
const maxKakaoResponseSize = 1 << 20

// KakaoOAuthConfig はKakaoトークン検証の設定。
type KakaoOAuthConfig struct {
	// テスト用にオーバーライド可能なURL
	UserInfoURL string
	// nilの場合はhttp.DefaultClientを使用する
	HTTPClient *http.Client
}

// KakaoVerifier はKakaoのアクセストークンを検証してKakaoユーザーIDを返す。
type KakaoVerifier struct {
	userInfoURL string
	client      *http.Client
}

// NewKakaoVerifier はKakaoVerifierを生成する。
func NewKakaoVerifier(config KakaoOAuthConfig) *KakaoVerifier {
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultKakaoUserInfoURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	return &KakaoVerifier{userInfoURL: config.UserInfoURL, client: config.HTTPClient}
}

// kakaoUserInfo はKakaoのユーザー情報エンドポイントのレスポンス。
// idは数値で返るため精度を落とさないようjson.Numberで受ける。
type kakaoUserInfo struct {
	ID          json.Number `json:"id"`
	ConnectedAt string      `json:"connected_at"`
}

// Verify はアクセストークンでユーザー情報を取得し、KakaoユーザーIDを返す。
func (v *KakaoVerifier) Verify(ctx context.Context, accessToken string) (string, error) {
	if strings.TrimSpace(accessToken) == "" {
		return "", fmt.Errorf("empty kakao access token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKakaoResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info kakaoUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to parse user info response: %w", err)
	}

	if info.ID.String() == "" {
		return "", fmt.Errorf("empty id in user info response")
	}

	return info.ID.String(), nil
}

// compile-time interface check
var _ OAuthVerifier = (*KakaoVerifier)(nil)
