package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/raisedragon/raisedragon/internal/model"
)

// Envelope はすべてのAPIレスポンスの共通フォーマット。
type Envelope struct {
	IsSuccess     bool       `json:"isSuccess"`
	Data          any        `json:"data"`
	ErrorResponse *ErrorBody `json:"errorResponse"`
}

// ErrorBody は失敗時のエラー内容。
type ErrorBody struct {
	Code          string `json:"code"`
	DetailMessage string `json:"detailMessage"`
}

// StatusForCode はエラーコードに対応するHTTPステータスを返す。
func StatusForCode(code string) int {
	switch code {
	case model.ErrCodeBadRequest:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case model.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteEnvelope は成功レスポンスを書き込む。dataがnilの場合は "data": null となる。
func WriteEnvelope(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, Envelope{IsSuccess: true, Data: data})
}

// WriteErrorResponse はAPIErrorを統一フォーマットで書き込む。
// ステータスコードはエラーコードから決まる。
func WriteErrorResponse(w http.ResponseWriter, apiErr *model.APIError) {
	writeJSON(w, StatusForCode(apiErr.Code), Envelope{
		IsSuccess: false,
		ErrorResponse: &ErrorBody{
			Code:          apiErr.Code,
			DetailMessage: apiErr.Message,
		},
	})
}

// WriteInternalServerError はE500レスポンスを書き込む。
// detailは非本番環境でのみ渡し、本番ではデフォルトメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter, detail string) {
	WriteErrorResponse(w, model.NewInternalServerError(detail))
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
