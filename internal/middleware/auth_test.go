package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Flaymie/oprosy/internal/initdata"
	"github.com/Flaymie/oprosy/internal/models"
	"github.com/Flaymie/oprosy/internal/repository"
)

// fakeAuthenticator implements Authenticator for testing.
type fakeAuthenticator struct {
	account  *models.Account
	identity *initdata.Identity
	err      error
	gotRaw   string
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, raw string) (*models.Account, *initdata.Identity, error) {
	f.gotRaw = raw
	return f.account, f.identity, f.err
}

func TestTelegramAuth(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		auth           *fakeAuthenticator
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "missing header",
			header:         "",
			auth:           &fakeAuthenticator{},
			expectedCode:   http.StatusUnauthorized,
			expectedSubstr: "Authorization header missing",
		},
		{
			name:           "not a bearer token",
			header:         "Basic abc123",
			auth:           &fakeAuthenticator{},
			expectedCode:   http.StatusUnauthorized,
			expectedSubstr: "Invalid authorization header format",
		},
		{
			name:           "invalid signature",
			header:         "Bearer tampered",
			auth:           &fakeAuthenticator{err: initdata.ErrInvalidSignature},
			expectedCode:   http.StatusUnauthorized,
			expectedSubstr: "invalid signature",
		},
		{
			name:           "expired credential",
			header:         "Bearer stale",
			auth:           &fakeAuthenticator{err: initdata.ErrExpired},
			expectedCode:   http.StatusUnauthorized,
			expectedSubstr: "expired",
		},
		{
			name:           "unknown account",
			header:         "Bearer valid",
			auth:           &fakeAuthenticator{err: repository.ErrAccountNotFound},
			expectedCode:   http.StatusNotFound,
			expectedSubstr: "start the bot",
		},
		{
			name:           "repository failure",
			header:         "Bearer valid",
			auth:           &fakeAuthenticator{err: errors.New("connection reset")},
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			h := TelegramAuth(tt.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run on rejected request")
			}))
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}

			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if !strings.Contains(body.Detail, tt.expectedSubstr) {
				t.Errorf("detail %q does not contain %q", body.Detail, tt.expectedSubstr)
			}
		})
	}
}

func TestTelegramAuth_Success(t *testing.T) {
	auth := &fakeAuthenticator{
		account:  &models.Account{ID: 1, TelegramID: 42, Username: "alice"},
		identity: &initdata.Identity{TelegramID: 42, Username: "alice", AuthDate: 1700000000},
	}

	var gotAccount *models.Account
	var gotIdentity *initdata.Identity
	h := TelegramAuth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccount = GetAccountFromContext(r.Context())
		gotIdentity = GetIdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer the-init-data")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if auth.gotRaw != "the-init-data" {
		t.Errorf("authenticator received %q; want %q", auth.gotRaw, "the-init-data")
	}
	if gotAccount == nil || gotAccount.TelegramID != 42 {
		t.Errorf("account in context = %+v; want telegram id 42", gotAccount)
	}
	if gotIdentity == nil || gotIdentity.AuthDate != 1700000000 {
		t.Errorf("identity in context = %+v; want auth date 1700000000", gotIdentity)
	}
}

func TestGetAccountFromContext_Empty(t *testing.T) {
	if got := GetAccountFromContext(context.Background()); got != nil {
		t.Errorf("expected nil account, got %+v", got)
	}
	if got := GetIdentityFromContext(context.Background()); got != nil {
		t.Errorf("expected nil identity, got %+v", got)
	}
}
