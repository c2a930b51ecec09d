package middleware

import (
	"net/http"

	logpkg "github.com/benvon/lockin/internal/logger"
	"github.com/benvon/lockin/internal/request"
	"go.uber.org/zap"
)

// Audit logs failed authentication and rate limit rejections.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
			}
			switch wrapped.statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				logger.Warn("security_event", append(fields, zap.Int("status_code", wrapped.statusCode))...)
			case http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation", fields...)
			}
		})
	}
}
