package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"challengr-backend/internal/apperr"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError maps the error taxonomy to an HTTP status
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *apperr.ValidationError
	var authErr *apperr.AuthError
	var blobErr *apperr.BlobError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &authErr):
		respondError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, apperr.ErrInviteNotFound):
		respondError(w, "Invite not found", http.StatusNotFound)
	case apperr.IsNotFound(err):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &blobErr):
		respondError(w, err.Error(), http.StatusBadGateway)
	default:
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}
