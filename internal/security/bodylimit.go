package security

import (
	"net/http"

	"github.com/noah-isme/productform/internal/common"
)

// BodyLimit enforces a maximum request payload size. Configuration documents
// are the largest bodies the service accepts.
type BodyLimit struct {
	Max int64
}

// Middleware rejects a declared oversized body with HTTP 413 up front and caps
// streamed bodies with http.MaxBytesReader. Handlers that hit the cap while
// decoding render the resulting *http.MaxBytesError through common.WriteError.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", map[string]any{"max_bytes": b.Max})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
