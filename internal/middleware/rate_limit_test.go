package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRateLimitByIP_AllowsUnderLimit verifies requests under the limit pass through
func TestRateLimitByIP_AllowsUnderLimit(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 5}
	middleware := RateLimitByIP(config)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:8080"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("request %d failed with status %d, expected 200", i+1, recorder.Code)
		}
	}
}

// TestRateLimitByIP_Returns429OverLimit verifies the limit is enforced with a JSON 429
func TestRateLimitByIP_Returns429OverLimit(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 3}
	middleware := RateLimitByIP(config)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("request %d failed with status %d, expected 200", i+1, recorder.Code)
		}
	}

	// 4th request should be rate limited
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d (too many requests), got %d", http.StatusTooManyRequests, recorder.Code)
	}

	contentType := recorder.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	body := recorder.Body.String()
	if body != `{"error":"rate_limit_exceeded","message":"Too many requests, slow down"}`+"\n" {
		t.Errorf("unexpected response body: %s", body)
	}
}

// TestRateLimitByIP_IsolatesClientBuckets verifies separate rate limits per client IP
func TestRateLimitByIP_IsolatesClientBuckets(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 2}
	middleware := RateLimitByIP(config)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Client A exhausts its limit
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "172.16.0.1:9000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusOK {
			t.Errorf("client A request %d failed", i+1)
		}
	}

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "172.16.0.1:9000"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("client A should be limited, got status %d", recorder.Code)
	}

	// Client B should still be able to make requests (independent bucket)
	req = httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "172.16.0.2:9000"
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("client B should have independent rate limit, got status %d", recorder.Code)
	}
}

// TestDefaultAuthRateLimit verifies the default configuration
func TestDefaultAuthRateLimit(t *testing.T) {
	config := DefaultAuthRateLimit()
	if config.RequestsPerMinute != 5 {
		t.Errorf("expected 5 requests per minute, got %d", config.RequestsPerMinute)
	}
}
