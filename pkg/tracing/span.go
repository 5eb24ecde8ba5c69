// Package tracing times the stages of a catalog query and emits one
// structured slog record per stage when it ends. A stage started from a
// context that already carries a stage inherits its request ID and gets a
// dotted name under it, so a search request produces records like "search"
// and "search.token-search" sharing one request_id.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type ctxKey struct{}

// Span is one timed stage of a request. End emits the record; a Span must
// not be used after End.
type Span struct {
	name      string
	requestID string
	started   time.Time

	mu    sync.Mutex
	attrs []any
	ended bool
}

// StartSpan begins a top-level stage tied to a request ID and stores it in
// the returned context for child stages.
func StartSpan(ctx context.Context, name, requestID string) (context.Context, *Span) {
	s := &Span{
		name:      name,
		requestID: requestID,
		started:   time.Now(),
	}
	return context.WithValue(ctx, ctxKey{}, s), s
}

// StartChildSpan begins a stage nested under the stage in ctx, inheriting
// its request ID and name prefix. Without a parent it behaves like a
// top-level stage with no request ID.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	s := &Span{
		name:    name,
		started: time.Now(),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		s.name = parent.name + "." + name
		s.requestID = parent.requestID
	}
	return context.WithValue(ctx, ctxKey{}, s), s
}

// SetAttr attaches a key-value pair to the stage's record.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// End emits the stage record. Repeated calls emit nothing.
func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	attrs := make([]any, 0, len(s.attrs)+6)
	attrs = append(attrs, "stage", s.name, "duration_ms", time.Since(s.started).Milliseconds())
	if s.requestID != "" {
		attrs = append(attrs, "request_id", s.requestID)
	}
	attrs = append(attrs, s.attrs...)
	slog.Debug("stage complete", attrs...)
}

// SpanFromContext returns the stage stored in ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	if s, ok := ctx.Value(ctxKey{}).(*Span); ok {
		return s
	}
	return nil
}

// Name returns the stage's full dotted name.
func (s *Span) Name() string {
	return s.name
}

// RequestID returns the request ID the stage carries.
func (s *Span) RequestID() string {
	return s.requestID
}
