package handlers

import (
	"net/http"
	"time"

	"challengr-backend/internal/middleware"
	"challengr-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// SubmissionHandler handles submission-related HTTP requests
type SubmissionHandler struct {
	ledger *services.SubmissionLedger
	hub    *services.Hub
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(ledger *services.SubmissionLedger, hub *services.Hub) *SubmissionHandler {
	return &SubmissionHandler{ledger: ledger, hub: hub}
}

// CreateSubmission handles POST /api/v1/challenges/{challenge_id}/submissions
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	challengeID := chi.URLParam(r, "challenge_id")

	photo, contentType, err := readImage(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	submission, err := h.ledger.AddSubmission(ctx, challengeID, userID, photo, contentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("challenge_id", challengeID).Msg("Failed to add submission")
		respondServiceError(w, err)
		return
	}

	h.hub.BroadcastToChallenge(ctx, challengeID, services.Event{
		Type:         services.EventSubmissionAdded,
		ChallengeID:  challengeID,
		SubmissionID: submission.ID,
		InitiatorID:  userID,
		PhotoURL:     submission.PhotoURL,
	})

	respondJSON(w, http.StatusCreated, submission)
}

// ListSubmissions handles GET /api/v1/challenges/{challenge_id}/submissions
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	challengeID := chi.URLParam(r, "challenge_id")

	if other := r.URL.Query().Get("user_id"); other != "" {
		userID = other
	}

	var from, to *time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondError(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		from = &t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondError(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		to = &t
	}

	submissions, err := h.ledger.ListSubmissions(ctx, challengeID, userID, from, to)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("challenge_id", challengeID).Msg("Failed to list submissions")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"submissions": submissions})
}

// Approve handles POST /api/v1/submissions/{submission_id}/approve
func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, true)
}

// Reject handles POST /api/v1/submissions/{submission_id}/reject
func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, false)
}

func (h *SubmissionHandler) vote(w http.ResponseWriter, r *http.Request, approve bool) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	submissionID := chi.URLParam(r, "submission_id")

	var err error
	if approve {
		err = h.ledger.Approve(ctx, submissionID, userID)
	} else {
		err = h.ledger.Reject(ctx, submissionID, userID)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("submission_id", submissionID).Msg("Failed to record vote")
		respondServiceError(w, err)
		return
	}

	if submission, err := h.ledger.GetSubmission(ctx, submissionID); err == nil {
		h.hub.BroadcastToChallenge(ctx, submission.ChallengeID, services.Event{
			Type:         services.EventVoteRecorded,
			ChallengeID:  submission.ChallengeID,
			SubmissionID: submissionID,
			InitiatorID:  userID,
		})
	}

	w.WriteHeader(http.StatusNoContent)
}
