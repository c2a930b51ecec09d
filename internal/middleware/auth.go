package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/lockin/internal/database"
	logpkg "github.com/benvon/lockin/internal/logger"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/request"
	"github.com/benvon/lockin/internal/services/oidc"
	"go.uber.org/zap"
)

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// Auth verifies the bearer token and mirrors the caller into the users table.
func Auth(verifier oidc.TokenVerifier, users database.UserRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondError(w, http.StatusUnauthorized, "Missing or malformed Authorization header")
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, token)
			if err != nil {
				logger.Info("token_verification_failed", zap.String("error", logpkg.SanitizeError(err)))
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			var name *string
			if claims.Name != "" {
				name = &claims.Name
			}
			user, err := users.GetOrCreateByProviderID(ctx, claims.Sub, claims.Email, name)
			if err != nil {
				logger.Error("failed_to_get_or_create_user", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Database error")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   false,
		"error":     http.StatusText(status),
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
