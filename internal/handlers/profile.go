package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"challengr-backend/internal/middleware"
	"challengr-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// maxImageBytes caps uploaded image size at 10 MiB
const maxImageBytes = 10 << 20

// ProfileHandler handles profile and account lifecycle requests
type ProfileHandler struct {
	sessions      *services.SessionService
	deprovisioner *services.AccountDeprovisioner
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(sessions *services.SessionService, deprovisioner *services.AccountDeprovisioner) *ProfileHandler {
	return &ProfileHandler{sessions: sessions, deprovisioner: deprovisioner}
}

// UpdateProfileRequest represents the request body for a profile update
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DeleteAccountRequest represents the request body for account deletion.
// The account is identified by the bearer token, never by the body.
type DeleteAccountRequest struct {
	CurrentPassword string `json:"current_password"`
}

// Me handles GET /api/v1/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.sessions.CurrentUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateMe handles PUT /api/v1/me
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.sessions.UpdateProfile(ctx, userID, req.FirstName, req.LastName, req.AvatarURL); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondServiceError(w, err)
		return
	}

	user, err := h.sessions.CurrentUser(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UploadAvatar handles POST /api/v1/me/avatar
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	image, contentType, err := readImage(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	url, err := h.sessions.UploadAvatar(ctx, userID, image, contentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to upload avatar")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// DeleteAccount handles DELETE /api/v1/me
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req DeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CurrentPassword == "" {
		respondError(w, "current_password is required", http.StatusBadRequest)
		return
	}

	result := h.deprovisioner.Deprovision(ctx, userID, req.CurrentPassword)
	if result.Err != nil {
		log.Error().Err(result.Err).Str("user_id", userID).Msg("Account deletion incomplete")
		respondServiceError(w, result.Err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// readImage extracts image bytes from a multipart "photo" field, falling
// back to the raw request body
func readImage(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")

	if err := r.ParseMultipartForm(maxImageBytes); err == nil {
		file, header, err := r.FormFile("photo")
		if err != nil {
			return nil, "", err
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
		if err != nil {
			return nil, "", err
		}
		return data, header.Header.Get("Content-Type"), nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
