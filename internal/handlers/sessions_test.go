package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func sessionRoutes(h *SessionHandler) func(*mux.Router) {
	return func(r *mux.Router) { h.RegisterRoutes(r.PathPrefix("/sessions").Subrouter()) }
}

func TestSessionHandler_StartSession(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	earlier := fixed.Add(-time.Minute)
	future := fixed.Add(time.Hour)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantStart  time.Time
	}{
		{name: "empty object uses server time", body: map[string]any{}, wantStatus: http.StatusCreated, wantStart: fixed},
		{name: "no body uses server time", body: nil, wantStatus: http.StatusCreated, wantStart: fixed},
		{name: "client time", body: map[string]any{"started_at": earlier}, wantStatus: http.StatusCreated, wantStart: earlier},
		{name: "future start rejected", body: map[string]any{"started_at": future}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotStart time.Time
			repo := &mockSessionRepo{
				start: func(ctx context.Context, userID uuid.UUID, startedAt time.Time) (*models.FocusSession, error) {
					gotStart = startedAt
					return &models.FocusSession{ID: uuid.New(), UserID: userID, StartedAt: startedAt}, nil
				},
			}
			h := NewSessionHandler(repo, nil, nil)
			h.now = func() time.Time { return fixed }

			w := serve(t, sessionRoutes(h), jsonRequest(http.MethodPost, "/sessions", tt.body), testUser())
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusCreated && !gotStart.Equal(tt.wantStart) {
				t.Errorf("started_at = %v, want %v", gotStart, tt.wantStart)
			}
		})
	}
}

func TestSessionHandler_FinishSession(t *testing.T) {
	t.Parallel()

	ended := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       any
		repoErr    error
		wantStatus int
	}{
		{name: "finish", body: map[string]any{"ended_at": ended, "idle_seconds": 42}, wantStatus: http.StatusOK},
		{name: "missing ended_at", body: map[string]any{"idle_seconds": 1}, wantStatus: http.StatusBadRequest},
		{name: "negative idle", body: map[string]any{"ended_at": ended, "idle_seconds": -1}, wantStatus: http.StatusBadRequest},
		{name: "unknown session", body: map[string]any{"ended_at": ended}, repoErr: database.ErrNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockSessionRepo{
				finish: func(ctx context.Context, userID, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return &models.FocusSession{ID: id, UserID: userID, EndedAt: &endedAt, IdleSeconds: idleSeconds}, nil
				},
			}
			h := NewSessionHandler(repo, nil, nil)

			w := serve(t, sessionRoutes(h), jsonRequest(http.MethodPatch, "/sessions/"+uuid.NewString(), tt.body), testUser())
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got models.FocusSession
			decodeData(t, w, &got)
			if got.IdleSeconds != 42 || got.Open() {
				t.Errorf("session = %+v", got)
			}
		})
	}
}

func TestSessionHandler_ListSessions_Limit(t *testing.T) {
	t.Parallel()

	var gotLimit int
	repo := &mockSessionRepo{
		listByUser: func(ctx context.Context, userID uuid.UUID, limit int) ([]*models.FocusSession, error) {
			gotLimit = limit
			return []*models.FocusSession{}, nil
		},
	}
	h := NewSessionHandler(repo, nil, nil)

	w := serve(t, sessionRoutes(h), jsonRequest(http.MethodGet, "/sessions?limit=5", nil), testUser())
	if w.Code != http.StatusOK || gotLimit != 5 {
		t.Fatalf("status = %d, limit = %d", w.Code, gotLimit)
	}

	w = serve(t, sessionRoutes(h), jsonRequest(http.MethodGet, "/sessions?limit=0", nil), testUser())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("limit=0 status = %d, want 400", w.Code)
	}
}
