package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// E500レスポンスを返すミドルウェアを生成する。
// exposeDetailがtrueの場合はpanic内容とスタックをdetailMessageに含める。
func NewRecoveryMiddleware(exposeDetail bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := string(debug.Stack())
					// ロギングミドルウェアより外側のため、リクエストIDはレスポンスヘッダーから取る
					slog.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("request_id", w.Header().Get(RequestIDHeader)),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", stack),
					)
					detail := ""
					if exposeDetail {
						detail = fmt.Sprintf("%v\n%s", rec, stack)
					}
					WriteInternalServerError(w, detail)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
