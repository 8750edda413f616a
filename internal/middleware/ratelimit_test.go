package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Flaymie/oprosy/internal/ratelimit"
)

func newLimitedHandler(limit int, period time.Duration, header string) http.Handler {
	cfg := RateLimitConfig{
		Store:          ratelimit.NewMemoryStore(limit, period),
		ClientIDHeader: header,
		Limit:          limit,
		Period:         period,
		Logger:         zap.NewNop(),
	}
	return RateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimit_AllowsThenThrottles(t *testing.T) {
	h := newLimitedHandler(3, time.Minute, "X-User-ID")

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/responses", nil)
		req.Header.Set("X-User-ID", "42")
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "3" {
			t.Errorf("X-RateLimit-Limit = %q; want %q", got, "3")
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/responses", nil)
	req.Header.Set("X-User-ID", "42")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q; want %q", got, "60")
	}
}

func TestRateLimit_RemainingHeaderCountsDown(t *testing.T) {
	h := newLimitedHandler(3, time.Minute, "X-User-ID")

	want := []string{"2", "1", "0"}
	for i, expected := range want {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/responses", nil)
		req.Header.Set("X-User-ID", "42")
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-RateLimit-Remaining"); got != expected {
			t.Errorf("request %d: X-RateLimit-Remaining = %q; want %q", i+1, got, expected)
		}
	}
}

func TestRateLimit_HeaderTakesPriorityOverPeerAddress(t *testing.T) {
	h := newLimitedHandler(1, time.Minute, "X-User-ID")

	// Same peer address, two different header identities: independent windows.
	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/responses", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-User-ID", id)
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("identity %s: expected 200, got %d", id, rec.Code)
		}
	}
}

func TestRateLimit_FallsBackToPeerAddress(t *testing.T) {
	h := newLimitedHandler(1, time.Minute, "X-User-ID")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/responses", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Same host, different port: same window.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/responses", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for same host, got %d", rec.Code)
	}
}

func TestRateLimit_UnkeyableRequestRejected(t *testing.T) {
	h := newLimitedHandler(1, time.Minute, "X-User-ID")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/responses", nil)
	req.RemoteAddr = ""
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unkeyable request, got %d", rec.Code)
	}
}

func TestRateLimit_ExemptAndBypassPaths(t *testing.T) {
	h := newLimitedHandler(1, time.Minute, "X-User-ID")

	paths := []string{"/health", "/docs", "/api/quizzes/5", "/api/users", "/api/analytics/summary"}
	for _, path := range paths {
		// Repeated calls well past the limit must all pass.
		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", path, nil)
			req.Header.Set("X-User-ID", "42")
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s call %d: expected 200, got %d", path, i+1, rec.Code)
			}
		}
	}
}
