package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/metrics"
	"github.com/benvon/lockin/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxClockSkew is how far in the future a client timestamp may be
const maxClockSkew = 5 * time.Minute

// SessionHandler handles lock-in session requests
type SessionHandler struct {
	repo    database.SessionRepositoryInterface
	metrics metrics.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(repo database.SessionRepositoryInterface, rec metrics.Recorder, log *zap.Logger) *SessionHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{repo: repo, metrics: rec, logger: log, now: time.Now}
}

// RegisterRoutes registers session routes on the given router
// The router should already have the /sessions prefix
func (h *SessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSessions).Methods("GET")
	r.HandleFunc("", h.StartSession).Methods("POST")
	r.HandleFunc("/{id}", h.FinishSession).Methods("PATCH")
}

// StartSessionRequest optionally carries the client's start time
type StartSessionRequest struct {
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// FinishSessionRequest closes a session
type FinishSessionRequest struct {
	EndedAt     *time.Time `json:"ended_at" validate:"required"`
	IdleSeconds int        `json:"idle_seconds" validate:"gte=0"`
}

// ListSessions returns the user's recent sessions, newest first
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 500 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	sessions, err := h.repo.ListByUser(r.Context(), user.ID, limit)
	if err != nil {
		h.logger.Error("failed_to_list_sessions", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list sessions")
		return
	}

	respondJSON(w, http.StatusOK, sessions)
}

// StartSession opens a session, closing any the user left open
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	now := h.now()
	startedAt := now
	if req.StartedAt != nil {
		if req.StartedAt.After(now.Add(maxClockSkew)) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "started_at is in the future")
			return
		}
		startedAt = *req.StartedAt
	}

	session, err := h.repo.Start(r.Context(), user.ID, startedAt)
	if err != nil {
		h.logger.Error("failed_to_start_session", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start session")
		return
	}
	h.metrics.RecordSessionStarted()

	respondJSON(w, http.StatusCreated, session)
}

// FinishSession records the end time and idle seconds of a session
func (h *SessionHandler) FinishSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}

	var req FinishSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	session, err := h.repo.Finish(r.Context(), user.ID, id, *req.EndedAt, req.IdleSeconds)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_finish_session", zap.String("session_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to finish session")
		return
	}
	h.metrics.RecordSessionFinished(time.Duration(session.IdleSeconds) * time.Second)

	respondJSON(w, http.StatusOK, session)
}
