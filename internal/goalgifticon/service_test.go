package goalgifticon

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/raisedragon/raisedragon/internal/model"
	"github.com/raisedragon/raisedragon/internal/repository"
	"github.com/raisedragon/raisedragon/internal/repository/memory"
)

var (
	testNow   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	goalStart = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc   *Service
	store *memory.Store
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), now: testNow}
	f.svc = NewService(f.store)
	f.svc.now = func() time.Time { return f.now }
	seq := 0
	f.svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Goals().Create(ctx, model.NewGoal("billing", "owner", model.GoalTypeBilling, "유료 다짐", goalStart, testNow)); err != nil {
			return err
		}
		return repos.Goals().Create(ctx, model.NewGoal("free", "owner", model.GoalTypeFree, "무료 다짐", goalStart, testNow))
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return f
}

func assertAPIError(t *testing.T, err error, code, message string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("expected code %s, got %s", code, apiErr.Code)
	}
	if message != "" && apiErr.Message != message {
		t.Errorf("expected message %q, got %q", message, apiErr.Message)
	}
}

// --- CreateAndUploadGifticon ---

func TestCreateAndUploadGifticon_Success(t *testing.T) {
	f := newFixture(t)

	attached, err := f.svc.CreateAndUploadGifticon(context.Background(), "owner", "billing", "https://cdn/gifticon/a.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attached.Gifticon.URL != "https://cdn/gifticon/a.png" {
		t.Errorf("unexpected url: %s", attached.Gifticon.URL)
	}
	if !attached.Gifticon.IsValidated {
		t.Error("expected gifticon to be validated by default")
	}
	if attached.Link.GoalID != "billing" || attached.Link.GifticonID != attached.Gifticon.ID {
		t.Errorf("unexpected link: %+v", attached.Link)
	}
}

func TestCreateAndUploadGifticon_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		goalID  string
		now     time.Time
		code    string
		message string
	}{
		{"missing goal", "owner", "missing", testNow, model.ErrCodeNotFound, ""},
		{"goal started", "owner", "billing", goalStart, model.ErrCodeBadRequest, "기프티콘을 업로드하는 중, 이미 다짐 수행이 시작되어 업로드할 수 없습니다."},
		{"free goal", "owner", "free", testNow, model.ErrCodeBadRequest, "기프티콘을 업로드하는 중, 무료 다짐에는 기프티콘을 업로드할 수 없습니다."},
		{"not creator", "stranger", "billing", testNow, model.ErrCodeBadRequest, "기프티콘을 업로드하는 중, 요청한 유저가 생성한 다짐에 대한 요청이 아닙니다."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.now = tt.now
			_, err := f.svc.CreateAndUploadGifticon(context.Background(), tt.userID, tt.goalID, "https://cdn/a.png")
			assertAPIError(t, err, tt.code, tt.message)
		})
	}
}

func TestCreateAndUploadGifticon_AlreadyAttached(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateAndUploadGifticon(context.Background(), "owner", "billing", "https://cdn/a.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.CreateAndUploadGifticon(context.Background(), "owner", "billing", "https://cdn/b.png")
	assertAPIError(t, err, model.ErrCodeBadRequest, "이미 기프티콘이 등록된 다짐입니다.")
}

// --- RetrieveByGoalID ---

func TestRetrieveByGoalID_Access(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateAndUploadGifticon(context.Background(), "owner", "billing", "https://cdn/a.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		link, _ := repos.GoalGifticons().FindByGoalID(ctx, "billing")
		return repos.Winners().Create(ctx, &model.Winner{ID: "w1", GoalID: "billing", UserID: "winner", GifticonID: link.GifticonID})
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for _, userID := range []string{"owner", "winner"} {
		attached, err := f.svc.RetrieveByGoalID(context.Background(), "billing", userID)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", userID, err)
		}
		if attached.Gifticon.URL != "https://cdn/a.png" {
			t.Errorf("%s: unexpected url %s", userID, attached.Gifticon.URL)
		}
	}

	_, err = f.svc.RetrieveByGoalID(context.Background(), "billing", "stranger")
	assertAPIError(t, err, model.ErrCodeBadRequest, "접근할 수 없는 기프티콘입니다.")
}

func TestRetrieveByGoalID_NoLink(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RetrieveByGoalID(context.Background(), "billing", "owner")
	assertAPIError(t, err, model.ErrCodeBadRequest, "접근할 수 없는 기프티콘입니다.")
}

// --- UpdateGifticonURLByGoalID ---

func TestUpdateGifticonURLByGoalID(t *testing.T) {
	f := newFixture(t)

	t.Run("no link", func(t *testing.T) {
		_, err := f.svc.UpdateGifticonURLByGoalID(context.Background(), "billing", "owner", "https://cdn/b.png")
		assertAPIError(t, err, model.ErrCodeBadRequest, "다짐에 등록된 기프티콘을 찾을 수 없습니다.")
	})

	if _, err := f.svc.CreateAndUploadGifticon(context.Background(), "owner", "billing", "https://cdn/a.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("not creator", func(t *testing.T) {
		_, err := f.svc.UpdateGifticonURLByGoalID(context.Background(), "billing", "stranger", "https://cdn/b.png")
		assertAPIError(t, err, model.ErrCodeBadRequest, model.MsgBadRequest)
	})

	t.Run("success after start", func(t *testing.T) {
		f.now = goalStart.Add(24 * time.Hour)
		attached, err := f.svc.UpdateGifticonURLByGoalID(context.Background(), "billing", "owner", "https://cdn/b.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attached.Gifticon.URL != "https://cdn/b.png" {
			t.Errorf("unexpected url %s", attached.Gifticon.URL)
		}
		stored, _ := f.svc.RetrieveByGoalID(context.Background(), "billing", "owner")
		if stored.Gifticon.URL != "https://cdn/b.png" {
			t.Errorf("update not persisted: %s", stored.Gifticon.URL)
		}
	})

	t.Run("goal ended", func(t *testing.T) {
		f.now = goalStart.Add(model.GoalDuration)
		_, err := f.svc.UpdateGifticonURLByGoalID(context.Background(), "billing", "owner", "https://cdn/c.png")
		assertAPIError(t, err, model.ErrCodeBadRequest, "이미 끝난 내기입니다")
	})
}
