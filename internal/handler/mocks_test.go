package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/raisedragon/raisedragon/internal/auth"
	"github.com/raisedragon/raisedragon/internal/goal"
	"github.com/raisedragon/raisedragon/internal/goalgifticon"
	"github.com/raisedragon/raisedragon/internal/goalproof"
	"github.com/raisedragon/raisedragon/internal/middleware"
	"github.com/raisedragon/raisedragon/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	kakaoLoginFn   func(ctx context.Context, accessToken string) (*auth.LoginResult, error)
	reissueTokenFn func(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

func (m *mockAuthService) KakaoLogin(ctx context.Context, accessToken string) (*auth.LoginResult, error) {
	if m.kakaoLoginFn != nil {
		return m.kakaoLoginFn(ctx, accessToken)
	}
	return &auth.LoginResult{}, nil
}

func (m *mockAuthService) ReissueToken(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if m.reissueTokenFn != nil {
		return m.reissueTokenFn(ctx, refreshToken)
	}
	return model.TokenPair{}, nil
}

type mockUserService struct {
	retrieveFn       func(ctx context.Context, userID string) (*model.User, error)
	updateNicknameFn func(ctx context.Context, userID, nickname string) (*model.User, error)
	duplicatedFn     func(ctx context.Context, nickname string) (bool, error)
	deactivateFn     func(ctx context.Context, userID string) error
	deleteFn         func(ctx context.Context, userID string) error
}

func (m *mockUserService) Retrieve(ctx context.Context, userID string) (*model.User, error) {
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, userID)
	}
	return &model.User{ID: userID}, nil
}

func (m *mockUserService) UpdateNickname(ctx context.Context, userID, nickname string) (*model.User, error) {
	if m.updateNicknameFn != nil {
		return m.updateNicknameFn(ctx, userID, nickname)
	}
	return &model.User{ID: userID, Nickname: model.Nickname(nickname)}, nil
}

func (m *mockUserService) IsNicknameDuplicated(ctx context.Context, nickname string) (bool, error) {
	if m.duplicatedFn != nil {
		return m.duplicatedFn(ctx, nickname)
	}
	return false, nil
}

func (m *mockUserService) Deactivate(ctx context.Context, userID string) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, userID)
	}
	return nil
}

func (m *mockUserService) Delete(ctx context.Context, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

type mockGoalService struct {
	createFn   func(ctx context.Context, in goal.CreateInput) (*model.Goal, error)
	retrieveFn func(ctx context.Context, goalID string) (*model.Goal, error)
	listFn     func(ctx context.Context, userID string) ([]*model.Goal, error)
	deleteFn   func(ctx context.Context, goalID, userID string) error
}

func (m *mockGoalService) Create(ctx context.Context, in goal.CreateInput) (*model.Goal, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Goal{ID: "6f1c2a9e-0001-4b8e-9d42-0a0b0c0d0e01", UserID: in.UserID}, nil
}

func (m *mockGoalService) Retrieve(ctx context.Context, goalID string) (*model.Goal, error) {
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, goalID)
	}
	return &model.Goal{ID: goalID}, nil
}

func (m *mockGoalService) ListByUser(ctx context.Context, userID string) ([]*model.Goal, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return []*model.Goal{}, nil
}

func (m *mockGoalService) Delete(ctx context.Context, goalID, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, goalID, userID)
	}
	return nil
}

type mockGoalProofService struct {
	createFn      func(ctx context.Context, userID, goalID, url, comment string) (*model.GoalProof, error)
	updateFn      func(ctx context.Context, goalProofID, userID string, in goalproof.UpdateInput) (*model.GoalProof, error)
	retrieveFn    func(ctx context.Context, goalProofID string) (*model.GoalProof, error)
	retrieveAllFn func(ctx context.Context, goalID string) (*goalproof.ProofList, error)
	isSuccessFn   func(ctx context.Context, goalID, userID string) (bool, error)
}

func (m *mockGoalProofService) Create(ctx context.Context, userID, goalID, url, comment string) (*model.GoalProof, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, goalID, url, comment)
	}
	return &model.GoalProof{ID: "3d2e1f0a-0001-4c5d-8e6f-1a2b3c4d5e01", UserID: userID, GoalID: goalID}, nil
}

func (m *mockGoalProofService) Update(ctx context.Context, goalProofID, userID string, in goalproof.UpdateInput) (*model.GoalProof, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, goalProofID, userID, in)
	}
	return &model.GoalProof{ID: goalProofID, UserID: userID}, nil
}

func (m *mockGoalProofService) Retrieve(ctx context.Context, goalProofID string) (*model.GoalProof, error) {
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, goalProofID)
	}
	return &model.GoalProof{ID: goalProofID}, nil
}

func (m *mockGoalProofService) RetrieveAll(ctx context.Context, goalID string) (*goalproof.ProofList, error) {
	if m.retrieveAllFn != nil {
		return m.retrieveAllFn(ctx, goalID)
	}
	return &goalproof.ProofList{}, nil
}

func (m *mockGoalProofService) IsSuccess(ctx context.Context, goalID, userID string) (bool, error) {
	if m.isSuccessFn != nil {
		return m.isSuccessFn(ctx, goalID, userID)
	}
	return false, nil
}

type mockGoalGifticonService struct {
	createFn   func(ctx context.Context, userID, goalID, uploadedURL string) (*goalgifticon.Attached, error)
	retrieveFn func(ctx context.Context, goalID, userID string) (*goalgifticon.Attached, error)
	updateFn   func(ctx context.Context, goalID, userID, newURL string) (*goalgifticon.Attached, error)
}

func (m *mockGoalGifticonService) CreateAndUploadGifticon(ctx context.Context, userID, goalID, uploadedURL string) (*goalgifticon.Attached, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, goalID, uploadedURL)
	}
	return attachedFixture(goalID, uploadedURL), nil
}

func (m *mockGoalGifticonService) RetrieveByGoalID(ctx context.Context, goalID, userID string) (*goalgifticon.Attached, error) {
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, goalID, userID)
	}
	return attachedFixture(goalID, "https://cdn.example.com/gifticon/a.png"), nil
}

func (m *mockGoalGifticonService) UpdateGifticonURLByGoalID(ctx context.Context, goalID, userID, newURL string) (*goalgifticon.Attached, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, goalID, userID, newURL)
	}
	return attachedFixture(goalID, newURL), nil
}

type mockBettingService struct {
	createFn func(ctx context.Context, userID, goalID, prediction string) (*model.Betting, error)
	listFn   func(ctx context.Context, goalID string) ([]*model.Betting, error)
	winnerFn func(ctx context.Context, goalID string) (*model.Winner, error)
}

func (m *mockBettingService) Create(ctx context.Context, userID, goalID, prediction string) (*model.Betting, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, goalID, prediction)
	}
	return &model.Betting{ID: "bet-1", UserID: userID, GoalID: goalID, Prediction: model.Prediction(prediction)}, nil
}

func (m *mockBettingService) ListByGoal(ctx context.Context, goalID string) ([]*model.Betting, error) {
	if m.listFn != nil {
		return m.listFn(ctx, goalID)
	}
	return []*model.Betting{}, nil
}

func (m *mockBettingService) RetrieveWinner(ctx context.Context, goalID string) (*model.Winner, error) {
	if m.winnerFn != nil {
		return m.winnerFn(ctx, goalID)
	}
	return nil, model.NewWinnerNotFoundError()
}

type mockUploader struct {
	uploadFn func(ctx context.Context, body io.Reader, directory, fileName, contentType string, size int64) (string, error)
}

func (m *mockUploader) Upload(ctx context.Context, body io.Reader, directory, fileName, contentType string, size int64) (string, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, body, directory, fileName, contentType, size)
	}
	return "https://cdn.example.com/" + directory + "/" + fileName, nil
}

type mockTokenParser struct {
	tokens map[string]string
}

func (m *mockTokenParser) ExtractUserID(accessToken string) (string, error) {
	if id, ok := m.tokens[accessToken]; ok {
		return id, nil
	}
	return "", model.NewUnauthorizedError("")
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// --- ヘルパー ---

func attachedFixture(goalID, url string) *goalgifticon.Attached {
	return &goalgifticon.Attached{
		Link:     &model.GoalGifticon{ID: "link-1", GoalID: goalID, GifticonID: "gifticon-1"},
		Gifticon: &model.Gifticon{ID: "gifticon-1", URL: model.URL(url), IsValidated: true},
	}
}

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

// testEnvelope はレスポンス検証用のエンベロープ。dataは後から型を決めてデコードする。
type testEnvelope struct {
	IsSuccess     bool                  `json:"isSuccess"`
	Data          json.RawMessage       `json:"data"`
	ErrorResponse *middleware.ErrorBody `json:"errorResponse"`
}

func decodeEnvelope(t *testing.T, body io.Reader) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return env
}

func decodeData(t *testing.T, env testEnvelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Data, err)
	}
}

func assertErrorCode(t *testing.T, env testEnvelope, code string) {
	t.Helper()
	if env.IsSuccess {
		t.Fatal("isSuccess should be false")
	}
	if env.ErrorResponse == nil {
		t.Fatal("errorResponse should not be null")
	}
	if env.ErrorResponse.Code != code {
		t.Errorf("code = %q, want %q", env.ErrorResponse.Code, code)
	}
}
