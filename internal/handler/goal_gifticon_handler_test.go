package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raisedragon/raisedragon/internal/goalgifticon"
	"github.com/raisedragon/raisedragon/internal/model"
)

func TestGoalGifticonHandler_Create_ReturnsURL(t *testing.T) {
	svc := &mockGoalGifticonService{
		createFn: func(ctx context.Context, userID, goalID, uploadedURL string) (*goalgifticon.Attached, error) {
			if userID != "user-a" || goalID != "6f1c2a9e-0001-4b8e-9d42-0a0b0c0d0e01" {
				t.Errorf("CreateAndUploadGifticon(%q, %q)", userID, goalID)
			}
			return attachedFixture(goalID, uploadedURL), nil
		},
	}
	h := NewGoalGifticonHandler(svc, NewResponder(false))

	req := httptest.NewRequest(http.MethodPost, "/v1/goal-gifticon", jsonBody(t, map[string]string{
		"goalId":      "6f1c2a9e-0001-4b8e-9d42-0a0b0c0d0e01",
		"gifticonURL": "u1",
	}))
	req = withUserID(req, "user-a")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var got goalGifticonResponse
	decodeData(t, decodeEnvelope(t, w.Body), &got)
	if got.GifticonURL != "u1" || got.GoalID != "6f1c2a9e-0001-4b8e-9d42-0a0b0c0d0e01" || !got.IsValidated {
		t.Errorf("unexpected response: %+v", got)
	}
}

func TestGoalGifticonHandler_Retrieve_Inaccessible(t *testing.T) {
	svc := &mockGoalGifticonService{
		retrieveFn: func(ctx context.Context, goalID, userID string) (*goalgifticon.Attached, error) {
			return nil, model.NewGifticonInaccessibleError()
		},
	}
	h := NewGoalGifticonHandler(svc, NewResponder(false))

	req := httptest.NewRequest(http.MethodGet, "/v1/goal-gifticon/6f1c2a9e-0001-4b8e-9d42-0a0b0c0d0e01", nil)
	req = withChiURLParam(req, "goalId", "6f1c2a9e-0001-4b8e-9d42-0a0b0c0d0e01")
	req = withUserID(req, "user-b")
	w := httptest.NewRecorder()

	h.Retrieve(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	env := decodeEnvelope(t, w.Body)
	if env.ErrorResponse.DetailMessage != "접근할 수 없는 기프티콘입니다." {
		t.Errorf("detailMessage = %q", env.ErrorResponse.DetailMessage)
	}
}

func TestGoalGifticonHandler_Update_ReturnsNewURL(t *testing.T) {
	h := NewGoalGifticonHandler(&mockGoalGifticonService{}, NewResponder(false))

	req := httptest.NewRequest(http.MethodPut, "/v1/goal-gifticon/6f1c2a9e-0001-4b8e-9d42-0a0b0c0d0e01",
		jsonBody(t, map[string]string{"gifticonURL": "u2"}))
	req = withChiURLParam(req, "goalId", "6f1c2a9e-0001-4b8e-9d42-0a0b0c0d0e01")
	req = withUserID(req, "user-a")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got goalGifticonResponse
	decodeData(t, decodeEnvelope(t, w.Body), &got)
	if got.GifticonURL != "u2" {
		t.Errorf("gifticonURL = %q, want u2", got.GifticonURL)
	}
}
