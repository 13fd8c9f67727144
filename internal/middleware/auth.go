// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/raisedragon/raisedragon/internal/model"
)

const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
	userIDContextKey = contextKey("user_id")
	// requestStateContextKey はログ出力用のリクエスト状態を格納するためのキー。
	requestStateContextKey = contextKey("request_state")
)

// requestState は外側のミドルウェアへ内側で判明した情報を伝える。
type requestState struct {
	userID string
}

// TokenParser はアクセストークンからユーザーIDを取り出すインターフェース。
// auth.TokenProviderの部分集合として定義する。
type TokenParser interface {
	ExtractUserID(accessToken string) (string, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// ユーザーIDをリクエストコンテキストに注入するミドルウェアを返す。
// トークンが無い、または不正な場合はE401を返す。
func NewAuthMiddleware(parser TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーからトークンを取得
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				WriteErrorResponse(w, model.NewUnauthorizedError(""))
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			if token == "" {
				WriteErrorResponse(w, model.NewUnauthorizedError(""))
				return
			}

			// 2. トークンを検証
			userID, err := parser.ExtractUserID(token)
			if err != nil || userID == "" {
				WriteErrorResponse(w, model.NewUnauthorizedError(""))
				return
			}

			// 3. 認証済みユーザーIDをコンテキストに注入
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// ロギングミドルウェアの配下であれば、ログにもユーザーIDが出力される。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if st, ok := ctx.Value(requestStateContextKey).(*requestState); ok {
		st.userID = userID
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}
