package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitByIP_AllowsUnderLimit(t *testing.T) {
	limited := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 5})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		recorder := httptest.NewRecorder()
		limited.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, recorder.Code)
		}
	}
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	limited := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 2})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	var lastCode int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "203.0.113.8:1234"
		recorder := httptest.NewRecorder()
		limited.ServeHTTP(recorder, req)
		lastCode = recorder.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding limit, got %d", lastCode)
	}
}

func TestRateLimitByIP_IsolatesClients(t *testing.T) {
	limited := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	first := httptest.NewRequest("POST", "/auth/login", nil)
	first.RemoteAddr = "203.0.113.9:1234"
	recorder := httptest.NewRecorder()
	limited.ServeHTTP(recorder, first)

	// A different IP gets its own budget.
	second := httptest.NewRequest("POST", "/auth/login", nil)
	second.RemoteAddr = "203.0.113.10:1234"
	recorder = httptest.NewRecorder()
	limited.ServeHTTP(recorder, second)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected fresh client to pass, got %d", recorder.Code)
	}
}
