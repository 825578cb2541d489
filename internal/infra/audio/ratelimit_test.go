package audio_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interview-assistant/internal/infra/audio"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := audio.NewRateLimiter(2, time.Minute)

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request within the window should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := audio.NewRateLimiter(1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 2)
	var retryAfter string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		retryAfter = rec.Header().Get("Retry-After")
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes: %v", codes)
	}
	if retryAfter == "" || retryAfter == "0" {
		t.Errorf("Retry-After: got %q", retryAfter)
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := audio.NewRateLimiter(1, 5*time.Millisecond)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	if rl.Len() != 2 {
		t.Fatalf("Len: %d", rl.Len())
	}

	time.Sleep(20 * time.Millisecond)
	rl.Prune()
	if rl.Len() != 0 {
		t.Errorf("closed windows should be pruned, %d left", rl.Len())
	}
	if !rl.Allow("10.0.0.1") {
		t.Error("a new window should open after the old one closed")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := audio.NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatal("rate 0 disables limiting")
		}
	}
}
