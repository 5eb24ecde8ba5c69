package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/megastore/catalog-search/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns each request an ID (honouring an inbound X-Request-ID),
// stores it in the context for log correlation, and echoes it back in the
// response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = newRequestID()
		}
		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf[:])
}
