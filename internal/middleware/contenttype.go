package middleware

import (
	"net/http"
	"strings"
)

// ContentType requires JSON bodies, or multipart for file uploads.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
		default:
			next.ServeHTTP(w, r)
			return
		}

		contentType := strings.ToLower(r.Header.Get("Content-Type"))
		switch {
		case contentType == "":
			respondError(w, http.StatusBadRequest, "Content-Type header is required")
		case strings.HasPrefix(contentType, "application/json"), strings.HasPrefix(contentType, "multipart/form-data"):
			next.ServeHTTP(w, r)
		default:
			respondError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json or multipart/form-data")
		}
	})
}
