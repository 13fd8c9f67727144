package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
	"github.com/raisedragon/raisedragon/internal/repository/memory"
)

// --- モック定義 ---

type mockVerifier struct {
	verifyFn func(ctx context.Context, accessToken string) (string, error)
}

func (m *mockVerifier) Verify(ctx context.Context, accessToken string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, accessToken)
	}
	return "kakao-" + accessToken, nil
}

type recordingCollector struct {
	logins []string
}

func (c *recordingCollector) RecordHTTPStatus(int)                {}
func (c *recordingCollector) RecordRequestLatency(time.Duration) {}
func (c *recordingCollector) RecordLogin(kind string)             { c.logins = append(c.logins, kind) }
func (c *recordingCollector) RecordGoalProofCreated()             {}
func (c *recordingCollector) RecordGoalSettled(string)            {}
func (c *recordingCollector) RecordUploadBytes(int64)             {}

// --- ヘルパー ---

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingCollector) {
	t.Helper()
	store := memory.NewStore()
	collector := &recordingCollector{}
	svc := NewService(store, &mockVerifier{}, NewJWTAgent("secret", time.Hour, time.Hour), collector)
	svc.now = func() time.Time { return testNow }
	return svc, store, collector
}

func findUser(t *testing.T, store *memory.Store, id string) *model.User {
	t.Helper()
	var user *model.User
	_ = store.ReadOnly(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		user, _ = repos.Users().FindByID(ctx, id)
		return nil
	})
	return user
}

func storedRefreshToken(t *testing.T, store *memory.Store, userID string) string {
	t.Helper()
	var payload string
	_ = store.ReadOnly(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		token, _ := repos.RefreshTokens().FindByUserID(ctx, userID)
		if token != nil {
			payload = token.Payload
		}
		return nil
	})
	return payload
}

// --- KakaoLogin ---

func TestNewService_DefaultNicknameGenerator(t *testing.T) {
	svc := NewService(memory.NewStore(), &mockVerifier{}, NewJWTAgent("secret", time.Hour, time.Hour), nil)

	for range 20 {
		if _, err := model.NewNickname(svc.nextNickname()); err != nil {
			t.Fatalf("default nickname generator returned an invalid nickname: %v", err)
		}
	}
}

func TestKakaoLogin_DefaultNicknameGenerator(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, &mockVerifier{}, NewJWTAgent("secret", time.Hour, time.Hour), nil)

	result, err := svc.KakaoLogin(context.Background(), "token-a")
	if err != nil {
		t.Fatalf("KakaoLogin() error = %v", err)
	}
	user := findUser(t, store, result.UserID)
	if user == nil || user.Nickname.String() == "" {
		t.Fatalf("expected user with generated nickname, got %+v", user)
	}
}


func TestKakaoLogin_NewUser(t *testing.T) {
	svc, store, collector := newTestService(t)
	svc.nextNickname = func() string { return "용감한 드래곤" }

	result, err := svc.KakaoLogin(context.Background(), "token-a")
	if err != nil {
		t.Fatalf("KakaoLogin failed: %v", err)
	}
	if result.Nickname != "용감한 드래곤" {
		t.Errorf("nickname = %q, want %q", result.Nickname, "용감한 드래곤")
	}
	if result.NicknameIsModified {
		t.Error("new user should not have a modified nickname")
	}

	user := findUser(t, store, result.UserID)
	if user == nil || user.OAuthTokenPayload != "kakao-token-a" || !user.IsActive() {
		t.Fatalf("unexpected stored user: %+v", user)
	}
	if got := storedRefreshToken(t, store, result.UserID); got != result.RefreshToken {
		t.Errorf("stored refresh token = %q, want the issued one", got)
	}
	if len(collector.logins) != 1 || collector.logins[0] != "new" {
		t.Errorf("login metrics = %v, want [new]", collector.logins)
	}
}

func TestKakaoLogin_SameIdentityReturnsSameUser(t *testing.T) {
	svc, _, collector := newTestService(t)

	first, err := svc.KakaoLogin(context.Background(), "token-a")
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	second, err := svc.KakaoLogin(context.Background(), "token-a")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	if first.UserID != second.UserID {
		t.Errorf("user IDs differ: %q vs %q", first.UserID, second.UserID)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Error("second login should rotate the refresh token")
	}
	if collector.logins[1] != "existing" {
		t.Errorf("second login kind = %q, want existing", collector.logins[1])
	}
}

func TestKakaoLogin_RetriesDuplicatedNickname(t *testing.T) {
	svc, _, _ := newTestService(t)
	names := []string{"같은 이름", "같은 이름", "다른 이름"}
	svc.nextNickname = func() string {
		n := names[0]
		names = names[1:]
		return n
	}

	if _, err := svc.KakaoLogin(context.Background(), "token-a"); err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	result, err := svc.KakaoLogin(context.Background(), "token-b")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if result.Nickname != "다른 이름" {
		t.Errorf("nickname = %q, want %q", result.Nickname, "다른 이름")
	}
}

func TestKakaoLogin_ReactivatesDeletedUser(t *testing.T) {
	svc, store, collector := newTestService(t)

	first, _ := svc.KakaoLogin(context.Background(), "token-a")
	_ = store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		return repos.Users().UpdateStatus(ctx, first.UserID, model.UserStatusDeleted, testNow)
	})

	second, err := svc.KakaoLogin(context.Background(), "token-a")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if second.UserID != first.UserID {
		t.Errorf("reactivation should keep the user ID")
	}
	if user := findUser(t, store, first.UserID); !user.IsActive() {
		t.Error("user should be ACTIVE after login")
	}
	if collector.logins[1] != "reactivated" {
		t.Errorf("login kind = %q, want reactivated", collector.logins[1])
	}
}

func TestKakaoLogin_ReactivationReassignsTakenNickname(t *testing.T) {
	svc, store, _ := newTestService(t)
	svc.nextNickname = func() string { return "원래 이름" }

	first, _ := svc.KakaoLogin(context.Background(), "token-a")
	_ = store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Users().UpdateNickname(ctx, first.UserID, "인기 이름", true, testNow); err != nil {
			return err
		}
		return repos.Users().UpdateStatus(ctx, first.UserID, model.UserStatusDeleted, testNow)
	})
	_ = store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		return repos.Users().Create(ctx, &model.User{
			ID: "other", OAuthTokenPayload: "kakao-other", Nickname: "인기 이름", Status: model.UserStatusActive,
		})
	})

	result, err := svc.KakaoLogin(context.Background(), "token-a")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Nickname != "원래 이름" {
		t.Errorf("nickname = %q, want a fresh random nickname", result.Nickname)
	}
	if result.NicknameIsModified {
		t.Error("reassigned nickname should not count as user-modified")
	}
}

func TestKakaoLogin_VerificationFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.verifier = &mockVerifier{verifyFn: func(ctx context.Context, accessToken string) (string, error) {
		return "", errors.New("401 from kakao")
	}}

	_, err := svc.KakaoLogin(context.Background(), "bad")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected E401, got %v", err)
	}
}

// --- ReissueToken ---

func TestReissueToken_Success(t *testing.T) {
	svc, store, _ := newTestService(t)
	login, _ := svc.KakaoLogin(context.Background(), "token-a")

	pair, err := svc.ReissueToken(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("ReissueToken failed: %v", err)
	}
	if pair.RefreshToken == login.RefreshToken {
		t.Error("refresh token should be rotated")
	}
	if got := storedRefreshToken(t, store, login.UserID); got != pair.RefreshToken {
		t.Error("stored refresh token should be overwritten")
	}

	// 古いトークンはもう使えない
	_, err = svc.ReissueToken(context.Background(), login.RefreshToken)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "잘못된 토큰으로 요청하셨습니다." {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestReissueToken_UnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ReissueToken(context.Background(), "unknown")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBadRequest {
		t.Fatalf("expected E400, got %v", err)
	}
}

func TestReissueToken_ExpiredStoredToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	agent := NewJWTAgent("secret", time.Hour, time.Minute)
	agent.now = func() time.Time { return testNow }
	svc.tokens = agent

	login, _ := svc.KakaoLogin(context.Background(), "token-a")
	agent.now = func() time.Time { return testNow.Add(time.Hour) }

	_, err := svc.ReissueToken(context.Background(), login.RefreshToken)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected E401, got %v", err)
	}
}

func TestReissueToken_DeletedUser(t *testing.T) {
	svc, store, _ := newTestService(t)
	login, _ := svc.KakaoLogin(context.Background(), "token-a")
	_ = store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		return repos.Users().UpdateStatus(ctx, login.UserID, model.UserStatusDeleted, testNow)
	})

	_, err := svc.ReissueToken(context.Background(), login.RefreshToken)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected E401, got %v", err)
	}
}
