package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"challengr-backend/internal/middleware"
	"challengr-backend/internal/models"
	"challengr-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ChallengeHandler handles challenge-related HTTP requests
type ChallengeHandler struct {
	membership *services.MembershipCoordinator
	cadence    *services.CadenceEvaluator
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(membership *services.MembershipCoordinator, cadence *services.CadenceEvaluator) *ChallengeHandler {
	return &ChallengeHandler{membership: membership, cadence: cadence}
}

// JoinRequest represents the request body for joining by invite code
type JoinRequest struct {
	InviteCode string           `json:"invite_code"`
	Frequency  models.Frequency `json:"frequency,omitempty"`
	Goal       string           `json:"goal,omitempty"`
}

// ConfigRequest represents the request body for saving a participant config
type ConfigRequest struct {
	Frequency models.Frequency `json:"frequency"`
	Goal      string           `json:"goal,omitempty"`
}

// CreateChallenge handles POST /api/v1/challenges
func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var spec services.ChallengeSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	challenge, err := h.membership.CreateChallenge(ctx, userID, spec)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create challenge")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, challenge)
}

// ListChallenges handles GET /api/v1/challenges
func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	challenges, err := h.membership.ListChallenges(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list challenges")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"challenges": challenges})
}

// JoinChallenge handles POST /api/v1/challenges/join.
// Join and config save are two separate store operations: a failure after
// the join leaves the user a member without a config, which the cadence
// evaluator tolerates.
func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.InviteCode == "" {
		respondError(w, "invite_code is required", http.StatusBadRequest)
		return
	}

	challenge, err := h.membership.JoinByInviteCode(ctx, req.InviteCode, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("invite_code", req.InviteCode).Msg("Failed to join challenge")
		respondServiceError(w, err)
		return
	}

	if req.Frequency != "" {
		cfg := models.ParticipantConfig{
			ChallengeID: challenge.ID,
			UserID:      userID,
			Frequency:   req.Frequency,
			Goal:        req.Goal,
		}
		if err := h.membership.SaveParticipantConfig(ctx, cfg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("challenge_id", challenge.ID).Msg("Joined but failed to save config")
			respondServiceError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, challenge)
}

// SaveConfig handles PUT /api/v1/challenges/{challenge_id}/config
func (h *ChallengeHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	challengeID := chi.URLParam(r, "challenge_id")

	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cfg := models.ParticipantConfig{
		ChallengeID: challengeID,
		UserID:      userID,
		Frequency:   req.Frequency,
		Goal:        req.Goal,
	}
	if err := h.membership.SaveParticipantConfig(ctx, cfg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("challenge_id", challengeID).Msg("Failed to save participant config")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// Cadence handles GET /api/v1/challenges/{challenge_id}/cadence
func (h *ChallengeHandler) Cadence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	challengeID := chi.URLParam(r, "challenge_id")

	if other := r.URL.Query().Get("user_id"); other != "" {
		userID = other
	}

	report, err := h.cadence.Evaluate(ctx, challengeID, userID, time.Now())
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("challenge_id", challengeID).Msg("Failed to evaluate cadence")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
