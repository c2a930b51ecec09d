package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/services/oidc"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LoginConfigSource resolves the login endpoints of a provider.
type LoginConfigSource interface {
	GetLoginConfig(ctx context.Context, providerName string) (*oidc.LoginConfig, error)
}

var _ LoginConfigSource = (*oidc.Provider)(nil)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	oidcProvider LoginConfigSource
	providerName string
	profiles     database.ProfileRepositoryInterface
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(oidcProvider LoginConfigSource, providerName string, profiles database.ProfileRepositoryInterface, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		oidcProvider: oidcProvider,
		providerName: providerName,
		profiles:     profiles,
		logger:       log,
	}
}

// RegisterPublicRoutes registers the unauthenticated auth routes
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
}

// RegisterRoutes registers the authenticated auth routes
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// GetOIDCLogin returns the endpoints a client uses to obtain a token
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	loginConfig, err := h.oidcProvider.GetLoginConfig(r.Context(), h.providerName)
	if err != nil {
		h.logger.Error("failed_to_get_oidc_login_config", zap.String("provider", h.providerName), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get OIDC configuration")
		return
	}

	respondJSON(w, http.StatusOK, loginConfig)
}

// GetMe returns the current user and their profile, creating the profile on
// first access
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.GetOrCreate(r.Context(), user.ID, user.Email)
	if err != nil {
		h.logger.Error("failed_to_load_profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, models.Me{User: user, Profile: profile})
}
