package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProfileHandler handles profile updates
type ProfileHandler struct {
	profiles database.ProfileRepositoryInterface
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles database.ProfileRepositoryInterface, log *zap.Logger) *ProfileHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{profiles: profiles, logger: log}
}

// RegisterRoutes registers profile routes on the given router
// The router should already have the /profile prefix
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.UpdateProfile).Methods("PATCH")
}

// UpdateProfileRequest lists the fields to change. An empty string clears a
// field.
type UpdateProfileRequest struct {
	LockInBeat *string `json:"lock_in_beat,omitempty" validate:"omitempty,max=2048"`
	MainGoal   *string `json:"main_goal,omitempty" validate:"omitempty,max=500"`
}

// UpdateProfile applies a partial update to the user's profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.MainGoal != nil {
		goal := validation.SanitizeText(*req.MainGoal)
		req.MainGoal = &goal
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}
	if req.LockInBeat != nil && *req.LockInBeat != "" {
		if u, err := url.Parse(*req.LockInBeat); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "lock_in_beat must be an http(s) URL")
			return
		}
	}

	ctx := r.Context()
	if _, err := h.profiles.GetOrCreate(ctx, user.ID, user.Email); err != nil {
		h.logger.Error("failed_to_load_profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load profile")
		return
	}

	profile, err := h.profiles.Update(ctx, user.ID, database.ProfilePatch{
		LockInBeat: req.LockInBeat,
		MainGoal:   req.MainGoal,
	})
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Profile not found")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_update_profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
