package handlers

import (
	"net/http"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/services/hype"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HypeHandler serves hype lines
type HypeHandler struct {
	provider hype.Provider
	profiles database.ProfileRepositoryInterface
	logger   *zap.Logger
}

// NewHypeHandler creates a new hype handler
func NewHypeHandler(provider hype.Provider, profiles database.ProfileRepositoryInterface, log *zap.Logger) *HypeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HypeHandler{provider: provider, profiles: profiles, logger: log}
}

// RegisterRoutes registers hype routes on the /api/v1 router
func (h *HypeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/hype", h.GetHype).Methods("GET")
}

// HypeResponse carries one line
type HypeResponse struct {
	Text string `json:"text"`
}

// GetHype returns a line tuned to the user's main goal when one is set
func (h *HypeHandler) GetHype(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	goal := ""
	if profile, err := h.profiles.GetOrCreate(ctx, user.ID, user.Email); err != nil {
		h.logger.Warn("failed_to_load_profile_for_hype", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else if profile.MainGoal != nil {
		goal = *profile.MainGoal
	}

	text, err := h.provider.Hype(ctx, goal)
	if err != nil || text == "" {
		if err != nil {
			h.logger.Warn("hype_unavailable", zap.Error(err))
		}
		text = hype.DefaultPhrase
	}

	respondJSON(w, http.StatusOK, HypeResponse{Text: text})
}
