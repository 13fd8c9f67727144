package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raisedragon/raisedragon/internal/model"
)

// mockTokenParser はTokenParserのテスト用モック。
type mockTokenParser struct {
	extractUserIDFn func(accessToken string) (string, error)
}

func (m *mockTokenParser) ExtractUserID(accessToken string) (string, error) {
	if m.extractUserIDFn != nil {
		return m.extractUserIDFn(accessToken)
	}
	return "", errors.New("not configured")
}

func TestAuthMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	parser := &mockTokenParser{
		extractUserIDFn: func(token string) (string, error) {
			if token != "valid-token" {
				t.Errorf("token = %q, want %q", token, "valid-token")
			}
			return "user-1", nil
		},
	}

	var captured string
	handler := NewAuthMiddleware(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/user", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if captured != "user-1" {
		t.Errorf("userID = %q, want %q", captured, "user-1")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	parser := &mockTokenParser{
		extractUserIDFn: func(token string) (string, error) {
			return "", errors.New("invalid token")
		},
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer   "},
		{"invalid token", "Bearer broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthMiddleware(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			var body Envelope
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.ErrorResponse == nil || body.ErrorResponse.Code != model.ErrCodeUnauthorized {
				t.Errorf("unexpected error response: %+v", body.ErrorResponse)
			}
		})
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected error when user ID is absent")
	}
}
