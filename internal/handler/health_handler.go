package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/raisedragon/raisedragon/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// healthTimeout はヘルスチェックのDB疎通確認に使う上限時間。
const healthTimeout = 3 * time.Second

// NewHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			middleware.WriteInternalServerError(w, "")
			return
		}
		middleware.WriteEnvelope(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
