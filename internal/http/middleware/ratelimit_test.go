package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(rate float64, burst int, clock *time.Time) *RateLimiter {
	rl := NewRateLimiter(rate, burst)
	rl.now = func() time.Time { return *clock }
	return rl
}

func TestRateLimiterBurstThenRefill(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newTestLimiter(1, 2, &clock)
	defer rl.Close()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatalf("expected burst of two to be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("expected other client to have its own bucket")
	}

	clock = clock.Add(1500 * time.Millisecond)
	if !rl.Allow("1.2.3.4") {
		t.Fatalf("expected refill after one second")
	}
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newTestLimiter(1, 1, &clock)
	defer rl.Close()

	rl.Allow("a")
	clock = clock.Add(20 * time.Minute)
	rl.Allow("b")

	if n := rl.evict(10 * time.Minute); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
}

func TestRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Close()
	rl.Close()
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/demo/sessions/x/messages", nil)
		req.Header.Set("X-Real-Ip", "9.9.9.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	if got := ClientIP(req); got != "10.0.0.7" {
		t.Fatalf("expected host from RemoteAddr, got %q", got)
	}
	req.Header.Set("X-Real-Ip", "203.0.113.9")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected X-Real-Ip, got %q", got)
	}
}
