package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/storage"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// beatFormField is the multipart field carrying the audio file
const beatFormField = "file"

// BeatHandler stores focus beats and points the profile at them
type BeatHandler struct {
	blobs    storage.BlobStore
	profiles database.ProfileRepositoryInterface
	maxSize  int64
	logger   *zap.Logger
}

// NewBeatHandler creates a new beat handler
func NewBeatHandler(blobs storage.BlobStore, profiles database.ProfileRepositoryInterface, maxSize int64, log *zap.Logger) *BeatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BeatHandler{blobs: blobs, profiles: profiles, maxSize: maxSize, logger: log}
}

// RegisterRoutes registers beat routes on the given router
// The router should already have the /beats prefix
func (h *BeatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.UploadBeat).Methods("POST")
}

// BeatResponse is the public location of an uploaded beat
type BeatResponse struct {
	URL string `json:"url"`
}

// UploadBeat accepts a multipart audio file, stores it under the user's
// prefix and sets it as the profile's lock-in beat
func (h *BeatHandler) UploadBeat(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// headers and small fields stay in memory, the rest spills to temp files
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid multipart body")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(beatFormField)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	if h.maxSize > 0 && header.Size > h.maxSize {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Beat file is too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	ext, ok := storage.AudioExtension(contentType)
	if !ok {
		respondJSONError(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Beat must be an audio file")
		return
	}

	ctx := r.Context()
	objectPath := user.ID.String() + "/" + uuid.NewString() + ext
	if err := h.blobs.Upload(ctx, storage.BeatsBucket, objectPath, file, contentType); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Beat file is too large")
			return
		}
		h.logger.Error("failed_to_upload_beat", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store beat")
		return
	}

	beatURL := h.blobs.PublicURL(storage.BeatsBucket, objectPath)
	if _, err := h.profiles.GetOrCreate(ctx, user.ID, user.Email); err != nil {
		h.logger.Error("failed_to_load_profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load profile")
		return
	}
	if _, err := h.profiles.Update(ctx, user.ID, database.ProfilePatch{LockInBeat: &beatURL}); err != nil {
		h.logger.Error("failed_to_set_lock_in_beat", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update profile")
		return
	}

	h.logger.Info("beat_uploaded",
		zap.String("user_id", user.ID.String()),
		zap.Int64("size", header.Size),
		zap.String("content_type", contentType),
	)
	respondJSON(w, http.StatusCreated, BeatResponse{URL: beatURL})
}
