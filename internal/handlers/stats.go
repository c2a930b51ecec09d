package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/lockin/internal/heatmap"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/services/insights"
	"github.com/benvon/lockin/internal/stats"
	"github.com/benvon/lockin/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// StatsService computes statistics views.
type StatsService interface {
	Report(ctx context.Context, userID uuid.UUID, q insights.Query) (*stats.Report, error)
	Heatmap(ctx context.Context, userID uuid.UUID, year int) (*heatmap.Grid, error)
	Range(ctx context.Context, userID uuid.UUID, days, offset int, loc *time.Location) ([]stats.Day, error)
}

var _ StatsService = (*insights.Service)(nil)

const (
	minYear = 1970
	maxYear = 9999
	// maxRangeDays bounds the chart series
	maxRangeDays = 366
)

// StatsHandler serves derived statistics
type StatsHandler struct {
	service StatsService
	logger  *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service StatsService, log *zap.Logger) *StatsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsHandler{service: service, logger: log}
}

// RegisterRoutes registers stats routes on the /api/v1 router
func (h *StatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/stats/range", h.GetRange).Methods("GET")
	r.HandleFunc("/heatmap", h.GetHeatmap).Methods("GET")
}

// GetStats returns the statistics report
// Query: year, sleep, other, birth (YYYY-MM-DD), tz (IANA name)
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	q, err := parseStatsQuery(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	report, err := h.service.Report(r.Context(), user.ID, q)
	if err != nil {
		h.logger.Error("failed_to_compute_stats", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetRange returns the per-day series
// Query: days (default 7), offset (windows back, default 0), tz
func (h *StatsHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	days, err := intParam(query.Get("days"), 7, 1, maxRangeDays)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "days: "+err.Error())
		return
	}
	offset, err := intParam(query.Get("offset"), 0, 0, 1000)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "offset: "+err.Error())
		return
	}
	loc, err := locationParam(query.Get("tz"))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	series, err := h.service.Range(r.Context(), user.ID, days, offset, loc)
	if err != nil {
		h.logger.Error("failed_to_compute_range", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute range")
		return
	}

	respondJSON(w, http.StatusOK, series)
}

// GetHeatmap returns the calendar grid of a year
func (h *StatsHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	year, err := intParam(r.URL.Query().Get("year"), 0, minYear, maxYear)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "year: "+err.Error())
		return
	}

	grid, err := h.service.Heatmap(r.Context(), user.ID, year)
	if err != nil {
		h.logger.Error("failed_to_compute_heatmap", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute heatmap")
		return
	}

	respondJSON(w, http.StatusOK, grid)
}

func parseStatsQuery(r *http.Request) (insights.Query, error) {
	query := r.URL.Query()
	q := insights.Query{Settings: stats.DefaultGrindSettings}

	year, err := intParam(query.Get("year"), 0, minYear, maxYear)
	if err != nil {
		return q, fmt.Errorf("year: %w", err)
	}
	q.Year = year

	if q.Settings.SleepHours, err = hoursParam(query.Get("sleep"), q.Settings.SleepHours); err != nil {
		return q, fmt.Errorf("sleep: %w", err)
	}
	if q.Settings.OtherHours, err = hoursParam(query.Get("other"), q.Settings.OtherHours); err != nil {
		return q, fmt.Errorf("other: %w", err)
	}

	if b := query.Get("birth"); b != "" {
		birth, err := time.Parse(models.DateLayout, b)
		if err != nil {
			return q, errors.New("birth must be YYYY-MM-DD")
		}
		q.Birth = &birth
	}

	if q.Location, err = locationParam(query.Get("tz")); err != nil {
		return q, err
	}
	return q, nil
}

// intParam parses an optional integer, returning def when s is empty. def
// itself is not range checked.
func intParam(s string, def, lo, hi int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return v, nil
}

func hoursParam(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	if err := validation.ValidateHours(v); err != nil {
		return 0, err
	}
	return v, nil
}

func locationParam(s string) (*time.Location, error) {
	if s == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q", s)
	}
	return loc, nil
}
