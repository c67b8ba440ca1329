package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	rl.now = func() time.Time { return now }
	t.Cleanup(rl.Stop)
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := range 3 {
		if !rl.Allow("a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("fourth request in the window should be refused")
	}
	if !rl.Allow("b") {
		t.Error("other clients have their own window")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("a new window should allow the client again")
	}
	if rl.Rejected() != 1 {
		t.Errorf("Rejected() = %d, want 1", rl.Rejected())
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	rl, now := newTestLimiter(t, 3)
	rl.Allow("old")
	*now = now.Add(11 * time.Minute)
	rl.Allow("new")

	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients() = %d, want 1", got)
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, now := newTestLimiter(t, 1)
	var limited int
	h := rl.Middleware(
		func(r *http.Request) string { return r.Header.Get("X-Client") },
		func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Client", "c1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	*now = now.Add(20 * time.Second)
	rec := do()
	if rec.Code != http.StatusTooManyRequests || limited != 1 {
		t.Fatalf("second request status = %d, limited = %d", rec.Code, limited)
	}
	if got := rec.Header().Get("Retry-After"); got != "40" {
		t.Errorf("Retry-After = %q, want 40", got)
	}
}
