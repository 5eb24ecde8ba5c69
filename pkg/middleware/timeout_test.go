package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimeoutPassesFastHandler(t *testing.T) {
	handler := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products", nil))
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if got := rec.Body.String(); got != `{"id":1}` {
		t.Errorf("body = %q", got)
	}
}

func TestTimeoutRepliesGatewayTimeout(t *testing.T) {
	release := make(chan struct{})
	handler := Timeout(10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("too late"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=shoe", nil))
	close(release)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if !strings.Contains(rec.Body.String(), "request timeout") {
		t.Errorf("body = %q, want the timeout error", rec.Body.String())
	}
}

func TestTimeoutDiscardsLateWrites(t *testing.T) {
	wrote := make(chan struct{})
	handler := Timeout(10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		_, _ = w.Write([]byte("stale body"))
		close(wrote)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=shoe", nil))
	<-wrote

	if strings.Contains(rec.Body.String(), "stale body") {
		t.Errorf("late handler write reached the response: %q", rec.Body.String())
	}
}

func TestTimeoutSkipsResponseAfterHandlerStartedWriting(t *testing.T) {
	block := make(chan struct{})
	handler := Timeout(10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		<-block
	}))

	rec := httptest.NewRecorder()
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(block)
	}()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=shoe", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want the handler's 200 preserved", rec.Code)
	}
}
