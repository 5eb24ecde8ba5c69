package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Timeout returns middleware that bounds request handling to the given
// duration. When the deadline passes before the handler has written
// anything, the client receives the API's JSON 504 and any later handler
// writes are discarded rather than interleaved with it.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			gw := &guardedWriter{w: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if gw.abandon() {
					slog.Warn("request timed out",
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					_, _ = w.Write([]byte(`{"error":"request timeout"}`))
				}
			}
		})
	}
}

// guardedWriter serialises handler writes against the timeout path. Once
// abandoned it swallows everything the handler still produces.
type guardedWriter struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	started   bool
	abandoned bool
}

func (g *guardedWriter) Header() http.Header {
	return g.w.Header()
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return
	}
	g.started = true
	g.w.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return len(b), nil
	}
	g.started = true
	return g.w.Write(b)
}

// abandon cuts the handler off and reports whether the timeout response may
// still be written, which is only safe while the handler has written
// nothing.
func (g *guardedWriter) abandon() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.abandoned = true
	return !g.started
}
