// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/raisedragon/raisedragon/internal/middleware"
	"github.com/raisedragon/raisedragon/internal/model"
)

// Responder はサービス層の結果を共通エンベロープに変換して書き込む。
type Responder struct {
	// exposeDetail がtrueの場合、内部エラーの内容をdetailMessageに含める。
	exposeDetail bool
}

// NewResponder はResponderを生成する。本番環境ではexposeDetailにfalseを渡す。
func NewResponder(exposeDetail bool) *Responder {
	return &Responder{exposeDetail: exposeDetail}
}

// OK は200とdataを書き込む。
func (rs *Responder) OK(w http.ResponseWriter, data any) {
	middleware.WriteEnvelope(w, http.StatusOK, data)
}

// Created は201とdataを書き込む。
func (rs *Responder) Created(w http.ResponseWriter, data any) {
	middleware.WriteEnvelope(w, http.StatusCreated, data)
}

// Error はサービス層から返されたエラーを書き込む。
// APIError以外はE500として扱う。
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, apiErr)
		return
	}

	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	detail := ""
	if rs.exposeDetail {
		detail = err.Error()
	}
	middleware.WriteInternalServerError(w, detail)
}

// decodeJSON はリクエストボディをvにデコードする。
// 不正なJSONの場合はE400を返す。
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewBadRequestError(model.MsgInvalidParameter)
	}
	return nil
}

// requestUserID は認証ミドルウェアが注入したユーザーIDを返す。
func requestUserID(r *http.Request) (string, error) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		return "", model.NewUnauthorizedError("")
	}
	return userID, nil
}

// pathParam はchiのURLパラメータをIDとして返す。空やUUID形式でない場合はE400を返す。
func pathParam(r *http.Request, key string) (string, error) {
	return parseID(chi.URLParam(r, key))
}

// parseID はUUID形式のIDを正規化して返す。
// 不正な値をUUID列に渡すとDBエラー(22P02)になるため、ここでE400にする。
func parseID(v string) (string, error) {
	id, err := uuid.Parse(v)
	if err != nil {
		return "", model.NewBadRequestError(model.MsgInvalidParameter)
	}
	return id.String(), nil
}

// NotFound は未定義ルートに対するE404ハンドラー。
func NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, model.NewNotFoundError(""))
}

// MethodNotAllowed は未対応メソッドに対するE405ハンドラー。
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, model.NewMethodNotAllowedError())
}
