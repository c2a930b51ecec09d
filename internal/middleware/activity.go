package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityRecorder stores the time of a user's latest API call.
type ActivityRecorder interface {
	UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error
}

// ActivityTracking records authenticated activity, writing at most once per
// minInterval per user. The midnight rollover skips users who stay inactive.
func ActivityTracking(repo ActivityRecorder, minInterval time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	var (
		mu   sync.Mutex
		seen = make(map[uuid.UUID]time.Time)
	)

	due := func(id uuid.UUID, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		if last, ok := seen[id]; ok && now.Sub(last) < minInterval {
			return false
		}
		seen[id] = now
		return true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := UserFromContext(r); user != nil && due(user.ID, time.Now()) {
				if err := repo.UpdateLastInteraction(r.Context(), user.ID); err != nil {
					logger.Warn("failed_to_update_user_activity", zap.Error(err))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
