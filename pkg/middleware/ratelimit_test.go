package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLimiterAllowsUpToBurst(t *testing.T) {
	l := NewLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow("client") {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if l.Allow("client") {
		t.Error("request beyond burst allowed")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, 1)
	if !l.Allow("a") {
		t.Fatal("first request for key a denied")
	}
	if !l.Allow("b") {
		t.Error("first request for key b denied after key a was limited")
	}
}

func TestRateLimitBlocksWrites(t *testing.T) {
	l := NewLimiter(0.001, 1)
	handler := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first POST status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimitPassesReads(t *testing.T) {
	l := NewLimiter(0.001, 1)
	handler := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=shoe", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %d status = %d, want 200", i+1, rec.Code)
		}
	}
}
