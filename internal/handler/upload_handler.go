package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/raisedragon/raisedragon/internal/metrics"
	"github.com/raisedragon/raisedragon/internal/model"
)

const (
	// uploadFormField はアップロードファイルのmultipartフィールド名。
	uploadFormField = "multipartFile"
	// uploadDirectory はアップロード先のディレクトリ。
	uploadDirectory = "gifticon"
	// multipartOverhead はmultipartの境界やヘッダー分として許容する余裕。
	multipartOverhead = 1 << 20
)

// FileUploader はファイルを保存して公開URLを返すインターフェース。
type FileUploader interface {
	Upload(ctx context.Context, body io.Reader, directory, fileName, contentType string, size int64) (string, error)
}

// UploadHandler はファイルアップロードのHTTPハンドラー。
type UploadHandler struct {
	uploader FileUploader
	resp     *Responder
	metrics  metrics.MetricsCollector
	maxSize  int64
}

// NewUploadHandler はUploadHandlerを生成する。maxSizeはファイル1件の上限バイト数。
func NewUploadHandler(uploader FileUploader, resp *Responder, collector metrics.MetricsCollector, maxSize int64) *UploadHandler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &UploadHandler{
		uploader: uploader,
		resp:     resp,
		metrics:  collector,
		maxSize:  maxSize,
	}
}

// Upload はmultipartのファイルをアップロードし、公開URLを返す。
// POST /v1/s3
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.resp.Error(w, r, model.NewFileTooLargeError())
			return
		}
		h.resp.Error(w, r, model.NewBadRequestError(model.MsgInvalidParameter))
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		h.resp.Error(w, r, model.NewFileTooLargeError())
		return
	}

	url, err := h.uploader.Upload(r.Context(), file, uploadDirectory,
		header.Filename, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.metrics.RecordUploadBytes(header.Size)
	h.resp.OK(w, url)
}
