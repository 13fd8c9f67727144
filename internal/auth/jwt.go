package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/raisedragon/raisedragon/internal/model"
)

// トークン種別。アクセストークンをリフレッシュに使うことはできない。
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken はトークンの署名、期限、種別のいずれかが不正であることを表す。
var ErrInvalidToken = errors.New("invalid token")

// Claims はJWTに格納する情報。
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId"`
	TokenType string `json:"tokenType"`
}

// TokenProvider はトークンの発行と検証のインターフェース。
type TokenProvider interface {
	// Provide はユーザーのアクセストークンとリフレッシュトークンを発行する。
	Provide(userID string) (model.TokenPair, error)
	// ExtractUserID はアクセストークンを検証してユーザーIDを返す。
	ExtractUserID(accessToken string) (string, error)
	// ValidateRefresh はリフレッシュトークンを検証してユーザーIDを返す。
	ValidateRefresh(refreshToken string) (string, error)
}

// JWTAgent はHS256で署名するTokenProviderの実装。
type JWTAgent struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTAgent はJWTAgentを生成する。
func NewJWTAgent(secret string, accessTTL, refreshTTL time.Duration) *JWTAgent {
	return &JWTAgent{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Provide はトークンペアを発行する。
// 同一秒内の再発行でも異なる値になるようjtiを付与する。
func (a *JWTAgent) Provide(userID string) (model.TokenPair, error) {
	access, err := a.sign(userID, tokenTypeAccess, a.accessTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := a.sign(userID, tokenTypeRefresh, a.refreshTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (a *JWTAgent) sign(userID, tokenType string, ttl time.Duration) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: tokenType,
	})
	return token.SignedString(a.secret)
}

// ExtractUserID はアクセストークンからユーザーIDを取り出す。
func (a *JWTAgent) ExtractUserID(accessToken string) (string, error) {
	return a.parse(accessToken, tokenTypeAccess)
}

// ValidateRefresh はリフレッシュトークンからユーザーIDを取り出す。
func (a *JWTAgent) ValidateRefresh(refreshToken string) (string, error) {
	return a.parse(refreshToken, tokenTypeRefresh)
}

func (a *JWTAgent) parse(tokenString, wantType string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.TokenType != wantType || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// compile-time interface check
var _ TokenProvider = (*JWTAgent)(nil)
