package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/metrics"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/queue"
	"github.com/benvon/lockin/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// JobEnqueuer publishes background jobs.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// StatsInvalidator drops cached statistics of a user.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// refreshJobTTL bounds how long a queued refresh stays useful.
const refreshJobTTL = time.Hour

// WorkLogHandler handles work log requests
type WorkLogHandler struct {
	repo    database.WorkLogRepositoryInterface
	stats   StatsInvalidator
	jobs    JobEnqueuer
	metrics metrics.Recorder
	logger  *zap.Logger
}

// NewWorkLogHandler creates a new work log handler. stats and jobs may be nil.
func NewWorkLogHandler(repo database.WorkLogRepositoryInterface, stats StatsInvalidator, jobs JobEnqueuer, rec metrics.Recorder, log *zap.Logger) *WorkLogHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkLogHandler{repo: repo, stats: stats, jobs: jobs, metrics: rec, logger: log}
}

// RegisterRoutes registers work log routes on the given router
// The router should already have the /work-logs prefix
func (h *WorkLogHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListWorkLogs).Methods("GET")
	r.HandleFunc("/{date}", h.UpsertWorkLog).Methods("PUT")
}

// UpsertWorkLogRequest represents the body of a work log upsert
type UpsertWorkLogRequest struct {
	Hours *float64 `json:"hours" validate:"required"`
}

// ListWorkLogs returns the user's work logs in date order
func (h *WorkLogHandler) ListWorkLogs(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	logs, err := h.repo.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed_to_list_work_logs", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list work logs")
		return
	}

	respondJSON(w, http.StatusOK, logs)
}

// UpsertWorkLog writes the hours for one date, replacing any earlier value
func (h *WorkLogHandler) UpsertWorkLog(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	date := mux.Vars(r)["date"]
	if !validation.IsISODate(date) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
		return
	}

	var req UpsertWorkLogRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}
	if err := validation.ValidateHours(*req.Hours); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	log := &models.WorkLog{UserID: user.ID, WorkDate: date, Hours: *req.Hours}
	if err := h.repo.Upsert(ctx, log); err != nil {
		h.logger.Error("failed_to_upsert_work_log", zap.String("work_date", date), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save work log")
		return
	}
	h.metrics.RecordWorkLogUpserted()

	h.afterChange(ctx, user.ID, date)

	respondJSON(w, http.StatusOK, log)
}

// afterChange drops stale statistics and schedules a recompute. Failures are
// logged only; the write itself already succeeded.
func (h *WorkLogHandler) afterChange(ctx context.Context, userID uuid.UUID, date string) {
	if h.stats != nil {
		if err := h.stats.Invalidate(ctx, userID); err != nil {
			h.logger.Warn("failed_to_invalidate_stats", zap.Error(err))
		}
	}
	if h.jobs == nil {
		return
	}

	job := queue.NewJob(queue.JobTypeStatsRefresh, userID)
	if d, err := time.Parse(models.DateLayout, date); err == nil {
		job.Year = d.Year()
	}
	notAfter := time.Now().Add(refreshJobTTL)
	job.NotAfter = &notAfter
	if err := h.jobs.Enqueue(ctx, job); err != nil {
		h.logger.Warn("failed_to_enqueue_stats_refresh", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
