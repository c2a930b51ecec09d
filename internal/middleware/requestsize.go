package middleware

import (
	"net/http"
	"strings"
)

const (
	// DefaultMaxRequestSize is the default maximum request body size (1MB)
	DefaultMaxRequestSize int64 = 1 << 20
)

// MaxRequestSize limits request bodies. Multipart uploads get uploadMax.
func MaxRequestSize(maxBytes, uploadMax int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	if uploadMax < maxBytes {
		uploadMax = maxBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := maxBytes
			if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
				// multipart framing overhead
				limit = uploadMax + 64<<10
			}

			if r.ContentLength > limit {
				respondError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
